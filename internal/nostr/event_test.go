package nostr

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPubKey = "b83a28b7e4e5d20bd960c5faeb6625f95529166b8bdb045d42634a2f35919450"

func TestEvent_ComputeID(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{
			name: "reaction with tags",
			ev: Event{
				PubKey:    testPubKey,
				CreatedAt: 1700000000,
				Kind:      KindReaction,
				Tags:      Tags{{"e", "abc"}, {"p", testPubKey}},
				Content:   "+",
			},
			want: "0190459425b5a099333a2d48c8bd309ea9284723e53fa021280911efb97d8529",
		},
		{
			name: "escapes and raw unicode",
			ev: Event{
				PubKey:    testPubKey,
				CreatedAt: 1700000001,
				Kind:      1,
				Content:   "line1\nquote\" tab\t ünï 🎵 <b>&",
			},
			want: "04062db509f4d1149bb9f997961abcb071fbab185d38ee8eb086cb2758cfae11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.ComputeID())
		})
	}
}

func TestEvent_SerializeEmptyTags(t *testing.T) {
	ev := Event{PubKey: "pk", CreatedAt: 1, Kind: 5}
	assert.Equal(t, `[0,"pk",1,5,[],""]`, string(ev.Serialize()))
}

func TestTags_Lookup(t *testing.T) {
	tags := Tags{
		{"e", "first"},
		{"p", "author"},
		{"e", "second", "wss://relay"},
		{"t"},
	}

	assert.Equal(t, "first", tags.Value("e"))
	assert.Equal(t, "second", tags.Last("e").Value())
	assert.Equal(t, []string{"first", "second"}, tags.Values("e"))
	assert.Equal(t, "", tags.Value("t"), "tag without value")
	assert.Nil(t, tags.Find("missing"))
	assert.Equal(t, "", tags.Value("missing"))
}

func TestKeySigner_SignAndVerify(t *testing.T) {
	signer, err := GenerateKeySigner()
	require.NoError(t, err)

	ev := &Event{Kind: KindReaction, Content: "+", Tags: Tags{{"e", "abc"}}}
	require.NoError(t, signer.Sign(ev))

	assert.Equal(t, signer.PublicKey(), ev.PubKey)
	assert.NotZero(t, ev.CreatedAt)
	assert.Len(t, ev.ID, 64)
	assert.Len(t, ev.Sig, 128)
	require.NoError(t, Verify(ev))

	tampered := *ev
	tampered.Content = "-"
	assert.ErrorIs(t, Verify(&tampered), ErrInvalidSignature)

	resigned := *ev
	resigned.Sig = "00" + ev.Sig[2:]
	assert.ErrorIs(t, Verify(&resigned), ErrInvalidSignature)
}

func TestNewKeySigner(t *testing.T) {
	s1, err := NewKeySigner("0000000000000000000000000000000000000000000000000000000000000003")
	require.NoError(t, err)
	s2, err := NewKeySigner("0000000000000000000000000000000000000000000000000000000000000003")
	require.NoError(t, err)
	assert.Equal(t, s1.PublicKey(), s2.PublicKey())
	// BIP-340 test vector 0: secret key 3.
	assert.Equal(t, "f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9", s1.PublicKey())

	_, err = NewKeySigner("abcd")
	assert.Error(t, err)
	_, err = NewKeySigner("zz")
	assert.Error(t, err)
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	ev := Event{ID: "id", PubKey: "pk", CreatedAt: 42, Kind: 9999, Tags: Tags{{"z", "list"}}, Content: "c", Sig: "sig"}

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at":42`)
	assert.Contains(t, string(data), `"tags":[["z","list"]]`)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestFilter_JSON(t *testing.T) {
	f := Filter{
		Kinds:   []int{KindListItem, KindListItemAddressable},
		Authors: []string{"pk"},
		Tags:    map[string][]string{"z": {"list"}},
		Until:   99,
		Limit:   500,
	}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kinds":[9999,39999],"authors":["pk"],"#z":["list"],"until":99,"limit":500}`, string(data))

	var decoded Filter
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, f, decoded)
}

func TestFilter_Matches(t *testing.T) {
	ev := &Event{
		ID:        "id1",
		PubKey:    "alice",
		CreatedAt: 100,
		Kind:      KindReaction,
		Tags:      Tags{{"e", "target"}, {"p", "bob"}},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"kind match", Filter{Kinds: []int{KindReaction}}, true},
		{"kind miss", Filter{Kinds: []int{KindListItem}}, false},
		{"author miss", Filter{Authors: []string{"carol"}}, false},
		{"tag match", Filter{Tags: map[string][]string{"e": {"other", "target"}}}, true},
		{"tag miss", Filter{Tags: map[string][]string{"e": {"other"}}}, false},
		{"since inclusive", Filter{Since: 100}, true},
		{"since excludes", Filter{Since: 101}, false},
		{"until inclusive", Filter{Until: 100}, true},
		{"until excludes", Filter{Until: 99}, false},
		{"id match", Filter{IDs: []string{"id1"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(ev))
		})
	}
}
