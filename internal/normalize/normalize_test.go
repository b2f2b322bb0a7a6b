package normalize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

func para(ch, idx int, kind novel.Kind, text string) novel.Paragraph {
	return novel.Paragraph{
		Chapter: ch,
		ParaIdx: idx,
		Kind:    kind,
		Text:    text,
		CharLen: novel.RuneLen(text),
	}
}

func TestRenumber_ContiguousPerChapter(t *testing.T) {
	paras := []novel.Paragraph{
		para(2, 7, novel.KindProse, "乙七"),
		para(1, 3, novel.KindProse, "甲三"),
		para(1, 9, novel.KindProse, "甲九"),
		para(2, 2, novel.KindProse, "乙二"),
	}
	out := Renumber(paras)
	if len(out) != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", len(out))
	}
	want := []struct{ ch, idx int }{{1, 1}, {1, 2}, {2, 1}, {2, 2}}
	for i, w := range want {
		if out[i].Chapter != w.ch || out[i].ParaIdx != w.idx {
			t.Errorf("out[%d] = (ch %d, idx %d), want (ch %d, idx %d)",
				i, out[i].Chapter, out[i].ParaIdx, w.ch, w.idx)
		}
	}
}

func TestMergeShort_LeadinCarriesNextKind(t *testing.T) {
	paras := []novel.Paragraph{
		para(1, 1, novel.KindProse, "那僧便念咒书符，大展幻术，将一块大石登时变成一块鲜明莹洁的美玉。"),
		para(1, 2, novel.KindProse, "诗曰："),
		para(1, 3, novel.KindPoem, "无材可去补苍天，\n枉入红尘若许年。"),
	}
	out := MergeShort(paras, DefaultConfig())
	if len(out) != 2 {
		t.Fatalf("expected 2 paragraphs after merge, got %d", len(out))
	}
	merged := out[1]
	if merged.Kind != novel.KindPoem {
		t.Errorf("merged paragraph kind = %q, want poem", merged.Kind)
	}
	if !strings.HasPrefix(merged.Text, "诗曰：") {
		t.Errorf("merged text should start with the lead-in: %q", merged.Text)
	}
	if !strings.Contains(merged.Text, "无材可去补苍天") {
		t.Errorf("merged text missing poem body: %q", merged.Text)
	}
	if merged.ParaIdx != 2 {
		t.Errorf("merged ParaIdx = %d, want 2 after renumbering", merged.ParaIdx)
	}
	if merged.CharLen != novel.RuneLen(merged.Text) {
		t.Errorf("CharLen not recomputed: %d vs %d", merged.CharLen, novel.RuneLen(merged.Text))
	}
}

func TestMergeShort_BracketedTitle(t *testing.T) {
	paras := []novel.Paragraph{
		para(1, 1, novel.KindProse, "《好了歌》"),
		para(1, 2, novel.KindPoem, "世人都晓神仙好，\n惟有功名忘不了。"),
	}
	out := MergeShort(paras, DefaultConfig())
	if len(out) != 1 {
		t.Fatalf("expected 1 paragraph after merge, got %d", len(out))
	}
	if out[0].Kind != novel.KindPoem {
		t.Errorf("kind = %q, want poem", out[0].Kind)
	}
	if !strings.HasPrefix(out[0].Text, "《好了歌》") {
		t.Errorf("unexpected merged text: %q", out[0].Text)
	}
}

func TestMergeShort_TitleLikeShort(t *testing.T) {
	paras := []novel.Paragraph{
		para(1, 1, novel.KindProse, "太虚幻境"),
		para(1, 2, novel.KindProse, "假作真时真亦假，无为有处有还无。这是刻在牌坊两边的一副对联。"),
	}
	out := MergeShort(paras, DefaultConfig())
	if len(out) != 1 {
		t.Fatalf("expected 1 paragraph after merge, got %d", len(out))
	}
	if out[0].Kind != novel.KindProse {
		t.Errorf("kind = %q, want prose", out[0].Kind)
	}

	// The same input with the heuristic disabled stays unmerged.
	cfg := DefaultConfig()
	cfg.MergeTitleLike = false
	out = MergeShort(paras, cfg)
	if len(out) != 2 {
		t.Fatalf("expected 2 paragraphs with title-like merging disabled, got %d", len(out))
	}
}

func TestMergeShort_NeverCrossesChapters(t *testing.T) {
	paras := []novel.Paragraph{
		para(1, 1, novel.KindProse, "正文段落，讲完了一件事情，章节到此为止。"),
		para(1, 2, novel.KindProse, "诗曰："),
		para(2, 1, novel.KindPoem, "下一章开头的诗句，\n不应与上一章合并。"),
	}
	out := MergeShort(paras, DefaultConfig())
	if len(out) != 3 {
		t.Fatalf("expected 3 paragraphs (no cross-chapter merge), got %d", len(out))
	}
	if out[1].Text != "诗曰：" {
		t.Errorf("trailing lead-in should survive unmerged, got %q", out[1].Text)
	}
}

// sentence is 25 characters including the closing mark, so boundaries fall at
// fixed, checkable offsets.
const sentence = "却说甄士隐俱听得明白但不知所云蠢物系何东西遂欲问。"

func TestSplitLong_SplitsAtSentenceBoundaries(t *testing.T) {
	long := strings.Repeat(sentence, 60) // 1500 characters
	paras := []novel.Paragraph{para(1, 1, novel.KindProse, long)}

	cfg := DefaultConfig()
	out := SplitLong(paras, cfg)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(out))
	}
	for i, p := range out {
		if p.CharLen > cfg.SegmentMax {
			t.Errorf("segment %d length %d exceeds max %d", i, p.CharLen, cfg.SegmentMax)
		}
		if p.CharLen < cfg.SegmentMin {
			t.Errorf("segment %d length %d below min %d", i, p.CharLen, cfg.SegmentMin)
		}
		if !strings.HasSuffix(p.Text, "。") {
			t.Errorf("segment %d does not end at a sentence boundary: ...%q", i, p.Text[len(p.Text)-10:])
		}
		if p.ParaIdx != i+1 {
			t.Errorf("segment %d ParaIdx = %d, want %d", i, p.ParaIdx, i+1)
		}
	}

	// No characters lost or invented.
	joined := strings.ReplaceAll(out[0].Text+out[1].Text, "\n", "")
	if joined != long {
		t.Errorf("split lost content: %d vs %d characters", novel.RuneLen(joined), novel.RuneLen(long))
	}
}

func TestSplitLong_SmallTailMergesBack(t *testing.T) {
	long := strings.Repeat(sentence, 62) // 1550 characters
	paras := []novel.Paragraph{para(1, 1, novel.KindProse, long)}

	cfg := DefaultConfig()
	out := SplitLong(paras, cfg)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments after tail merge, got %d", len(out))
	}
	last := out[len(out)-1]
	if last.CharLen < cfg.SegmentMin {
		t.Errorf("tail segment length %d below min %d", last.CharLen, cfg.SegmentMin)
	}
}

func TestSplitLong_PoemsKeptIntact(t *testing.T) {
	poem := strings.Repeat("满纸荒唐言，一把辛酸泪。\n", 150) // well over the prose ceiling
	paras := []novel.Paragraph{para(1, 1, novel.KindPoem, poem)}

	out := SplitLong(paras, DefaultConfig())
	if len(out) != 1 {
		t.Fatalf("poem should not split, got %d paragraphs", len(out))
	}
	if out[0].Kind != novel.KindPoem {
		t.Errorf("kind = %q, want poem", out[0].Kind)
	}
}

func TestSplitLong_ShortProseUntouched(t *testing.T) {
	paras := []novel.Paragraph{para(1, 1, novel.KindProse, strings.Repeat(sentence, 10))}
	out := SplitLong(paras, DefaultConfig())
	if len(out) != 1 {
		t.Fatalf("short prose should not split, got %d", len(out))
	}
	if out[0].Text != strings.Repeat(sentence, 10) {
		t.Errorf("short prose text was modified")
	}
}

func TestApply_Idempotent(t *testing.T) {
	paras := []novel.Paragraph{
		para(1, 1, novel.KindProse, strings.Repeat(sentence, 60)),
		para(1, 2, novel.KindProse, "诗曰："),
		para(1, 3, novel.KindPoem, "无材可去补苍天，\n枉入红尘若许年。"),
		para(2, 1, novel.KindProse, "次章正文，自成一段，不与他章相混。"),
	}
	cfg := DefaultConfig()

	once := Apply(paras, cfg)
	twice := Apply(once, cfg)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Apply is not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}
