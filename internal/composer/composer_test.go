package composer

import (
	"strings"
	"testing"

	"github.com/hitoshi/linkshelf/internal/model"
)

func strPtr(s string) *string { return &s }

// TestCompose_URLOnly はメタデータが空の場合に成功行とURL行のみになることをテストする。
func TestCompose_URLOnly(t *testing.T) {
	got := Compose(model.EmptyMetadata(), "https://example.com/a")
	want := "✅ ¡Artículo guardado!\n🔗 URL: https://example.com/a"
	if got != want {
		t.Errorf("Compose() = %q, want %q", got, want)
	}
}

// TestCompose_AllFields は全フィールドが固定順序で出力されることをテストする。
func TestCompose_AllFields(t *testing.T) {
	record := model.MetadataRecord{
		Title:       strPtr("Hola"),
		Description: strPtr("Un resumen"),
		Language:    strPtr("es-ES"),
		Authors:     []string{"Ana", "Luis"},
		Topics:      []string{"go", "bots"},
	}

	got := Compose(record, "https://example.com/a")
	want := "✅ ¡Artículo guardado!\n" +
		"🔗 URL: https://example.com/a\n" +
		"📝 Título: Hola\n" +
		"📄 Descripción: Un resumen\n" +
		"🌍 Idioma: Castellano\n" +
		"👥 Autor(es): Ana, Luis\n" +
		"🏷️ Temas: go, bots"
	if got != want {
		t.Errorf("Compose() =\n%s\nwant\n%s", got, want)
	}
}

// TestCompose_OmitsMissingLines は値のない行が出力されないことをテストする。
func TestCompose_OmitsMissingLines(t *testing.T) {
	record := model.MetadataRecord{
		Title:   strPtr("Sólo título"),
		Authors: []string{},
		Topics:  []string{"x"},
	}

	got := Compose(record, "https://example.com/a")
	for _, marker := range []string{"📄", "🌍", "👥"} {
		if strings.Contains(got, marker) {
			t.Errorf("Compose() contains %q: %q", marker, got)
		}
	}
	if !strings.Contains(got, "📝 Título: Sólo título\n🏷️ Temas: x") {
		t.Errorf("Compose() = %q, missing title/topics lines in order", got)
	}
}

// TestCompose_UnknownLanguage は未知の言語タグがそのまま表示されることをテストする。
func TestCompose_UnknownLanguage(t *testing.T) {
	got := Compose(model.MetadataRecord{Language: strPtr("fr")}, "https://example.com/a")
	if !strings.HasSuffix(got, "\n🌍 Idioma: fr") {
		t.Errorf("Compose() = %q, want language line for fr", got)
	}
}

// TestCompose_DescriptionTruncated は200文字を超える説明文が切り詰められることをテストする。
func TestCompose_DescriptionTruncated(t *testing.T) {
	long := strings.Repeat("á", 250)
	got := Compose(model.MetadataRecord{Description: strPtr(long)}, "https://example.com/a")

	want := "\n📄 Descripción: " + strings.Repeat("á", 200) + "..."
	if !strings.HasSuffix(got, want) {
		t.Errorf("Compose() description line not truncated to 200 runes: %q", got)
	}
}

// TestTruncate は切り詰めの境界値をテストする。
func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"上限未満", "abc", 5, "abc"},
		{"上限ちょうど", "abcde", 5, "abcde"},
		{"上限超過", "abcdef", 5, "abcde..."},
		{"マルチバイト", "ñañañaña", 4, "ñaña..."},
		{"空文字列", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

// TestCompose_Deterministic は同一入力に対して同一の出力となることをテストする。
func TestCompose_Deterministic(t *testing.T) {
	record := model.MetadataRecord{Title: strPtr("t"), Topics: []string{"a", "b"}}
	if Compose(record, "u") != Compose(record, "u") {
		t.Error("Compose() is not deterministic")
	}
}
