package segment

import (
	"strings"
	"testing"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

func TestIsVerseLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"两弯似蹙非蹙罥烟眉，", true},
		{"一双似喜非喜含情目。", true},
		{"态生两靥之愁，", true},
		{"心较比干多一窍，病如西子胜三分。", true},
		{"满纸荒唐言？", true},
		{"都云作者痴！", true},
		{"谁解其中味…", true},
		{"", false},
		{"   ", false},
		{"没有标点结尾的句子", false},
		{strings.Repeat("长", 41) + "。", false}, // over the length ceiling
		{strings.Repeat("长", 39) + "。", true},
	}
	for _, c := range cases {
		if got := IsVerseLine(c.line); got != c.want {
			t.Errorf("IsVerseLine(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestSplitBody_IndentStartsNewParagraph(t *testing.T) {
	body := strings.Join([]string{
		"　　雨村正值偶感风寒，病在旅店，将一月光景方渐愈，一因身体劳倦，二因盘费不继，也正欲寻个合式之处暂且歇下。",
		"　　幸有两个旧友亦在此境居住，因闻得鹾政欲聘一西宾，雨村便相托友力谋了进去，且作安身之计，妙在只一个女学生。",
	}, "\n")

	paras := SplitBody(body)
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %#v", len(paras), paras)
	}
	if paras[0] != "雨村正值偶感风寒，病在旅店，将一月光景方渐愈，一因身体劳倦，二因盘费不继，也正欲寻个合式之处暂且歇下。" {
		t.Errorf("unexpected first paragraph: %q", paras[0])
	}
}

func TestSplitBody_ConsecutiveVerseMerges(t *testing.T) {
	body := strings.Join([]string{
		"　　黛玉方进入房时，只见两个人搀着一位鬓发如银的老母迎上来，黛玉便知是他外祖母，方欲拜见时，早被他外祖母一把搂入怀中。",
		"　　两弯似蹙非蹙罥烟眉，",
		"　　一双似喜非喜含情目。",
		"　　态生两靥之愁，",
		"　　娇袭一身之病。",
		"　　宝玉看罢，因笑道：这个妹妹我曾见过的，面善得很，今日只当远别重逢，亦未为不可，因此便走近黛玉身边坐下。",
	}, "\n")

	paras := SplitBody(body)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %#v", len(paras), paras)
	}
	poem := paras[1]
	if strings.Count(poem, "\n") != 3 {
		t.Errorf("expected 4 merged verse lines, got %q", poem)
	}
	if !strings.HasPrefix(poem, "两弯似蹙非蹙") {
		t.Errorf("unexpected poem start: %q", poem)
	}
	if Classify(poem) != novel.KindPoem {
		t.Errorf("merged verse should classify as poem")
	}
	if Classify(paras[2]) != novel.KindProse {
		t.Errorf("trailing narration should classify as prose")
	}
}

func TestSplitBody_BlankLineFlushes(t *testing.T) {
	body := "　　上一段。\n\n　　下一段。"
	paras := SplitBody(body)
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paras))
	}
}

func TestSplitBody_EndMarkersDropped(t *testing.T) {
	for _, marker := range []string{"(本章完)", "（本章完）", "(本回完)", "（本回完）"} {
		body := "　　正文段落。\n" + marker
		paras := SplitBody(body)
		if len(paras) != 1 {
			t.Fatalf("marker %q: expected 1 paragraph, got %d", marker, len(paras))
		}
		if strings.Contains(paras[0], "本章完") || strings.Contains(paras[0], "本回完") {
			t.Errorf("marker %q leaked into output: %q", marker, paras[0])
		}
	}
}

func TestSplitBody_UnindentedVerseDetectedLate(t *testing.T) {
	// Some editions carry verse without the full-width indent.
	body := strings.Join([]string{
		"　　有诗为证：",
		"无材可去补苍天，",
		"枉入红尘若许年。",
		"此系身前身后事，",
		"倩谁记去作奇传？",
	}, "\n")

	paras := SplitBody(body)
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d: %#v", len(paras), paras)
	}
	if Classify(paras[0]) != novel.KindPoem {
		t.Errorf("expected poem classification for %q", paras[0])
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		text string
		want novel.Kind
	}{
		{"single line is prose", "满纸荒唐言，", novel.KindProse},
		{"two verse lines", "满纸荒唐言，\n一把辛酸泪。", novel.KindPoem},
		{"long narration", "却说雨村忙回头看时，不是别人，乃是当日同僚一案参革的号张如圭者\n他本系此地人。", novel.KindProse},
		{"mostly verse", "好了歌：\n世人都晓神仙好，\n惟有功名忘不了。\n古今将相在何方？\n荒冢一堆草没了。", novel.KindPoem},
	}
	for _, c := range cases {
		if got := Classify(c.text); got != c.want {
			t.Errorf("%s: Classify = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestParagraphs_NumbersFromOne(t *testing.T) {
	ch := novel.Chapter{
		Number: 3,
		Title:  "第三回 测试",
		Body:   "　　第一段。\n\n　　第二段。\n\n　　第三段。",
	}
	paras := Paragraphs(ch)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}
	for i, p := range paras {
		if p.ParaIdx != i+1 {
			t.Errorf("paras[%d].ParaIdx = %d, want %d", i, p.ParaIdx, i+1)
		}
		if p.Chapter != 3 {
			t.Errorf("paras[%d].Chapter = %d, want 3", i, p.Chapter)
		}
		if p.CharLen != novel.RuneLen(p.Text) {
			t.Errorf("paras[%d].CharLen = %d, want %d", i, p.CharLen, novel.RuneLen(p.Text))
		}
	}
}
