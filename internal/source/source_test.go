package source

import (
	"strings"
	"testing"
)

func TestTextReader_PreservesIndentation(t *testing.T) {
	input := "第一回 标题\n　　缩进的正文段落。\n　　另一段。"
	p := &TextReader{}
	got, err := p.Read(strings.NewReader(input), "novel.txt")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got != input {
		t.Errorf("text reader altered content:\nin:  %q\nout: %q", input, got)
	}
}

func TestNormalizeText_CRLF(t *testing.T) {
	got := NormalizeText("第一行\r\n第二行\r第三行")
	if got != "第一行\n第二行\n第三行" {
		t.Errorf("newline normalization failed: %q", got)
	}
}

func TestNormalizeText_BOM(t *testing.T) {
	got := NormalizeText("\uFEFF第一回 标题")
	if strings.HasPrefix(got, "\uFEFF") {
		t.Errorf("BOM survived normalization: %q", got)
	}
	if got != "第一回 标题" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestNormalizeText_NFC(t *testing.T) {
	// e + combining acute composes to é.
	got := NormalizeText("Café")
	if got != "Café" {
		t.Errorf("expected NFC composition, got %q", got)
	}
}

func TestNormalizeText_KeepsFullwidthIndent(t *testing.T) {
	in := "　　缩进段落。"
	if got := NormalizeText(in); got != in {
		t.Errorf("full-width indent altered: %q", got)
	}
}

func TestIsSupportedExtension(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"novel.txt", true},
		{"novel.TXT", true},
		{"novel.md", true},
		{"novel.markdown", true},
		{"novel.html", true},
		{"novel.htm", true},
		{"novel.pdf", true},
		{"novel.docx", true},
		{"novel.csv", false},
		{"novel.epub", false},
		{"novel", false},
	}
	for _, c := range cases {
		if got := IsSupportedExtension(c.name); got != c.want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	if _, err := ForFile("novel.epub", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestExtract_TextRoundTrip(t *testing.T) {
	input := "\uFEFF第一回 标题\r\n　　正文。"
	got, err := Extract(strings.NewReader(input), "novel.txt", Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	want := "第一回 标题\n　　正文。"
	if got != want {
		t.Errorf("Extract = %q, want %q", got, want)
	}
}
