package extractor

import "strings"

// entityReplacer はタイトル、著者、トピックに適用するHTMLエンティティの置換表。
// 引用符の装飾文字はASCIIの ' と " に畳み込む。
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#8217;", "'",
	"&#8216;", "'",
	"&#8220;", `"`,
	"&#8221;", `"`,
	"&#8211;", "–",
	"&#8212;", "—",
	"&nbsp;", " ",
	"&copy;", "©",
	"&reg;", "®",
	"&trade;", "™",
)

// DecodeEntities は既知のHTMLエンティティをデコードする。
// 置換は1パスで行うため、"&amp;lt;" は "&lt;" になる。
func DecodeEntities(text string) string {
	if text == "" || !strings.Contains(text, "&") {
		return text
	}
	return entityReplacer.Replace(text)
}
