package tokenstore

import (
	"testing"
)

func TestParseStoreType(t *testing.T) {
	tests := []struct {
		input string
		want  StoreType
	}{
		{"memory", StoreTypeMemory},
		{"Memory", StoreTypeMemory},
		{"redis", StoreTypeRedis},
		{"REDIS", StoreTypeRedis},
		{"keyring", StoreTypeKeyring},
		{"invalid", StoreTypeMemory},
		{"", StoreTypeMemory},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseStoreType(tt.input); got != tt.want {
				t.Errorf("ParseStoreType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStoreType_IsValid(t *testing.T) {
	for _, valid := range []StoreType{StoreTypeMemory, StoreTypeRedis, StoreTypeKeyring} {
		if !valid.IsValid() {
			t.Errorf("IsValid(%v) = false, want true", valid)
		}
	}
	if StoreType("bogus").IsValid() {
		t.Error("IsValid(bogus) = true, want false")
	}
}

func TestFactory_CreateMemory(t *testing.T) {
	store, err := NewStore(Config{Type: StoreTypeMemory})
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("NewStore() = %T, want *MemoryStore", store)
	}
}

func TestFactory_CreateKeyring(t *testing.T) {
	store, err := NewStore(Config{Type: StoreTypeKeyring, KeyringService: "authflow-test"})
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	if _, ok := store.(*KeyringStore); !ok {
		t.Errorf("NewStore() = %T, want *KeyringStore", store)
	}
}

func TestFactory_CreateInvalid(t *testing.T) {
	_, err := NewStore(Config{Type: StoreType("bogus")})
	if err == nil {
		t.Error("NewStore() with invalid type should fail")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Type != StoreTypeMemory {
		t.Errorf("DefaultConfig() type = %v, want memory", config.Type)
	}
}
