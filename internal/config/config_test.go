package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LLM_PROVIDER", "STORAGE_BACKEND", "STORAGE_DIR", "CHAT_HISTORY_LIMIT",
		"DEFAULT_PERSONA", "LOG_LEVEL", "LOG_PRETTY", "METRICS_ENABLED", "ARK_API_KEY", "Model",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.AI.Provider != ProviderArk {
		t.Fatalf("unexpected provider %q", cfg.AI.Provider)
	}
	if cfg.AI.Enabled() {
		t.Fatal("expected AI disabled without credentials")
	}
	if cfg.Storage.Backend != StorageFile || cfg.Storage.Dir != "data/conversation_history" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Chat.HistoryLimit != 20 {
		t.Fatalf("expected history limit 20, got %d", cfg.Chat.HistoryLimit)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("expected metrics enabled by default")
	}
}

func TestHistoryLimitRoundedToEven(t *testing.T) {
	t.Setenv("CHAT_HISTORY_LIMIT", "7")

	cfg, err := loadChatConfig()
	if err != nil {
		t.Fatalf("loadChatConfig err: %v", err)
	}
	if cfg.HistoryLimit != 8 {
		t.Fatalf("expected 8, got %d", cfg.HistoryLimit)
	}
}

func TestInvalidProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mystery")

	if _, err := loadAIConfig(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestInvalidPort(t *testing.T) {
	t.Setenv("PORT", "80 80")

	if _, err := loadServerConfig(); err == nil {
		t.Fatal("expected error for port with spaces")
	}
}

func TestProviderEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"ark api key", AIConfig{Provider: ProviderArk, APIKey: "k", Model: "m"}, true},
		{"ark ak/sk", AIConfig{Provider: ProviderArk, AccessKey: "a", SecretKey: "s", Model: "m"}, true},
		{"ark no model", AIConfig{Provider: ProviderArk, APIKey: "k"}, false},
		{"openai", AIConfig{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "k", Model: "gpt"}}, true},
		{"openai no key", AIConfig{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{Model: "gpt"}}, false},
		{"gemini", AIConfig{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "k", Model: "g"}}, true},
	}

	for _, tc := range cases {
		if got := tc.cfg.Enabled(); got != tc.want {
			t.Fatalf("%s: Enabled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
