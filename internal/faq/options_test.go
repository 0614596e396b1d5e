package faq

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_Defaults(t *testing.T) {
	opts := NewOptions()

	require.NoError(t, opts.Complete())
	require.NoError(t, opts.Validate())

	assert.Equal(t, ":8083", opts.Server.Addr)
	assert.Equal(t, 6, opts.FAQ.TopK)
	assert.InDelta(t, 0.72, opts.FAQ.ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 0.78, opts.FAQ.MatchThreshold, 1e-9)
	assert.Equal(t, "fr-CA", opts.FAQ.DefaultLang)
	assert.Contains(t, opts.FAQ.Organizers, "wkc")
	assert.False(t, opts.Cache.Enabled)
	assert.False(t, opts.Data.Shopify.Enabled())
}

func TestOptions_AddFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--server.addr=:9000",
		"--faq.top-k=3",
		"--faq.models=m1,m2",
		"--data.shopify.domain=shop.example.com",
	}))

	assert.Equal(t, ":9000", opts.Server.Addr)
	assert.Equal(t, 3, opts.FAQ.TopK)
	assert.Equal(t, []string{"m1", "m2"}, opts.FAQ.Models)
	assert.Equal(t, "shop.example.com", opts.Data.Shopify.Domain)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{"missing addr", func(o *Options) { o.Server.Addr = "" }, "server.addr"},
		{"missing provider", func(o *Options) { o.Chat.Provider = "" }, "chat.provider"},
		{"zero top-k", func(o *Options) { o.FAQ.TopK = 0 }, "faq.top-k"},
		{"bad match threshold", func(o *Options) { o.FAQ.MatchThreshold = 1.5 }, "faq.match-threshold"},
		{"no models", func(o *Options) { o.FAQ.Models = nil; o.FAQ.DefaultModel = "" }, "faq.models"},
		{"missing index path", func(o *Options) { o.Data.IndexPath = "" }, "data.index-path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.mutate(opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptions_Complete_FillsModels(t *testing.T) {
	opts := NewOptions()
	opts.FAQ.Models = nil
	opts.FAQ.DefaultModel = "fallback-model"

	require.NoError(t, opts.Complete())
	assert.Equal(t, []string{"fallback-model"}, opts.FAQ.Models)
}

func TestChatProviderOptions_ToConfigMap(t *testing.T) {
	opts := NewOptions()
	opts.Chat.APIKey = "sk-test"

	m := opts.Chat.ToConfigMap()
	assert.Equal(t, "sk-test", m["api_key"])
	assert.Equal(t, "https://openrouter.ai/api/v1", m["base_url"])
}
