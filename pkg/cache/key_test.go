package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "detail endpoint",
			key: CacheKey{
				Endpoint: "/v0/subjects/253",
			},
			want: "bgm:v0/subjects/253",
		},
		{
			name: "listing endpoint with sorted query",
			key: CacheKey{
				Endpoint: "/v0/subjects",
				QueryParams: url.Values{
					"type":   []string{"2"},
					"sort":   []string{"rank"},
					"limit":  []string{"100"},
					"offset": []string{"200"},
				},
			},
			want: "bgm:v0/subjects:limit=100:offset=200:sort=rank:type=2",
		},
		{
			name: "repeated query values",
			key: CacheKey{
				Endpoint:    "/v0/subjects",
				QueryParams: url.Values{"tag": []string{"a", "b"}},
			},
			want: "bgm:v0/subjects:tag=a,b",
		},
		{
			name: "empty endpoint",
			key:  CacheKey{},
			want: "bgm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	key := CacheKey{
		Endpoint: "/v0/subjects",
		QueryParams: url.Values{
			"offset": []string{"0"},
			"limit":  []string{"100"},
			"sort":   []string{"rank"},
		},
	}

	first := key.String()
	for i := 0; i < 20; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q vs %q", got, first)
		}
	}
}
