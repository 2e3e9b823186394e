package i18n

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"
)

func TestTranslate(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))

	tests := []struct {
		lang string
		key  string
		want string
	}{
		{"nl", "Delete table", "Tabel verwijderen"},
		{"nl-BE", "Merge cells", "Cellen samenvoegen"},
		{"nl", "Insert table", "Tabel invoegen"},
		{"nl", "Level 3", "Niveau 3"},
		{"en", "Delete table", "Delete table"},
		{"nl", "Not translated", "Not translated"},
		{"nl", "100% width", "100% width"},
		{"de", "Delete table", "Delete table"},
		{"!!", "Split cell", "Split cell"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.key, func(t *testing.T) {
			if got := New(tt.lang, log).Func()(tt.key); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	found := map[language.Tag]bool{}
	for _, tag := range Languages() {
		found[tag] = true
	}
	if !found[language.English] || !found[language.Dutch] {
		t.Errorf("expected English and Dutch, got %v", Languages())
	}
	if New("nl-NL", nil).Language() != language.Dutch {
		t.Errorf("expected Dutch translator")
	}
}
