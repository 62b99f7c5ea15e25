package security

import (
	"strings"
	"testing"
)

// TestSanitizeHTML_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitizeHTML_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{"pタグが許可される", "<p>業務内容</p>", []string{"<p>業務内容</p>"}},
		{"リストが許可される", "<ul><li>Go</li><li>SQL</li></ul>", []string{"<ul>", "<li>Go</li>", "</ul>"}},
		{"見出しが許可される", "<h3>応募資格</h3>", []string{"<h3>応募資格</h3>"}},
		{"コードブロックが許可される", "<pre><code>go test ./...</code></pre>", []string{"<pre><code>go test ./...</code></pre>"}},
		{"強調が許可される", "<strong>必須</strong><em>歓迎</em>", []string{"<strong>必須</strong>", "<em>歓迎</em>"}},
		{
			"httpsリンクにrelが付与される",
			`<a href="https://example.com/jobs">詳細</a>`,
			[]string{`href="https://example.com/jobs"`, "nofollow", "noopener", "noreferrer", "詳細"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeHTML(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("SanitizeHTML(%q) = %q, want to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitizeHTML_DangerousContent は危険な要素が除去されることを検証する。
func TestSanitizeHTML_DangerousContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name           string
		input          string
		wantNotContain []string
	}{
		{"scriptタグが除去される", `<p>a</p><script>alert(1)</script>`, []string{"<script", "alert(1)"}},
		{"iframeが除去される", `<iframe src="https://evil.example"></iframe>`, []string{"<iframe"}},
		{"styleが除去される", `<style>body{}</style><p>x</p>`, []string{"<style"}},
		{"onclick属性が除去される", `<p onclick="steal()">x</p>`, []string{"onclick", "steal"}},
		{"javascriptスキームが除去される", `<a href="javascript:alert(1)">x</a>`, []string{"javascript:"}},
		{"httpリンクが除去される", `<a href="http://insecure.example">x</a>`, []string{"http://insecure.example"}},
		{"imgタグが除去される", `<img src="https://example.com/a.png">`, []string{"<img"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeHTML(tt.input)
			for _, bad := range tt.wantNotContain {
				if strings.Contains(got, bad) {
					t.Errorf("SanitizeHTML(%q) = %q, must not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

// TestSanitizeHTML_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestSanitizeHTML_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()
	input := `<p>Go <strong>engineer</strong></p><script>x</script>`

	first := sanitizer.SanitizeHTML(input)
	second := sanitizer.SanitizeHTML(first)
	if first != second {
		t.Errorf("sanitizing twice changed output: %q -> %q", first, second)
	}
}

// TestSanitizeText はタグが全て除去されることを検証する。
func TestSanitizeText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		input string
		want  string
	}{
		{"  Senior Go Engineer  ", "Senior Go Engineer"},
		{"<b>Remote</b> only", "Remote only"},
		{"R&D <script>alert(1)</script>", "R&D"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizer.SanitizeText(tt.input); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
