package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aravindchilpa/articalapi/internal/newsapi"
	"github.com/aravindchilpa/articalapi/internal/rewrite"
	"github.com/aravindchilpa/articalapi/internal/token"
)

type fakeRewriter struct {
	titles     []string
	titlesErr  error
	titleCalls int

	text      map[string]string // site -> 返回值
	textErr   map[string]error  // site -> 返回错误
	textCalls int
}

func (f *fakeRewriter) RewriteTitles(_ context.Context, _ []string) ([]string, error) {
	f.titleCalls++
	return f.titles, f.titlesErr
}

func (f *fakeRewriter) RewriteText(_ context.Context, _ string, site string) (string, error) {
	f.textCalls++
	if err := f.textErr[site]; err != nil {
		return "", err
	}
	return f.text[site], nil
}

type fakeArticle struct {
	data  *newsapi.ArticleData
	err   error
	calls int
}

func (f *fakeArticle) Article(_ context.Context, _ string) (*newsapi.ArticleData, error) {
	f.calls++
	return f.data, f.err
}

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	key := make([]byte, token.KeySize)
	c, err := token.NewCodec(key, "https://api.example.com")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func rawBatch() []newsapi.RawItem {
	return []newsapi.RawItem{
		{Title: "A", Content: "c1", ImageURL: "http://x/1.png", HashID: "h1", URL: "http://x/a"},
		{Title: "B", Content: "c2", ImageURL: "http://x/2.png", HashID: "h2", URL: "http://x/b"},
	}
}

func TestAssembleUsesRewrittenTitlesPositionally(t *testing.T) {
	rw := &fakeRewriter{titles: []string{"Rewritten A", "Rewritten B"}}
	a := New(testCodec(t), rw, nil, nil)

	items := a.Assemble(context.Background(), rawBatch(), "cur-1")
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Title != "Rewritten A" || items[1].Title != "Rewritten B" {
		t.Fatalf("titles = %q, %q", items[0].Title, items[1].Title)
	}
	// 原始字段原样透传，整批统一挂同一个游标
	for i, it := range items {
		if it.Index != i {
			t.Fatalf("item %d index = %d", i, it.Index)
		}
		if it.MinNewsID != "cur-1" {
			t.Fatalf("item %d cursor = %q, want cur-1", i, it.MinNewsID)
		}
	}
	if items[0].Content != "c1" || items[0].HashID != "h1" || items[0].URL != "http://x/a" {
		t.Fatalf("raw fields not preserved: %+v", items[0])
	}
}

func TestAssembleFallsBackPerPositionWhenRewriteTruncated(t *testing.T) {
	// 模型只回了一行：第二条按位回退原标题
	rw := &fakeRewriter{titles: []string{"Rewritten A"}}
	a := New(testCodec(t), rw, nil, nil)

	items := a.Assemble(context.Background(), rawBatch(), "")
	if items[0].Title != "Rewritten A" {
		t.Fatalf("items[0].Title = %q", items[0].Title)
	}
	if items[1].Title != "B" {
		t.Fatalf("items[1].Title = %q, want original B", items[1].Title)
	}
}

func TestAssembleFallsBackOnEmptyPositions(t *testing.T) {
	rw := &fakeRewriter{titles: []string{"", "Rewritten B"}}
	a := New(testCodec(t), rw, nil, nil)

	items := a.Assemble(context.Background(), rawBatch(), "")
	if items[0].Title != "A" {
		t.Fatalf("empty rewritten title should fall back: %q", items[0].Title)
	}
	if items[1].Title != "Rewritten B" {
		t.Fatalf("items[1].Title = %q", items[1].Title)
	}
}

func TestAssembleSurvivesTotalRewriteFailure(t *testing.T) {
	rw := &fakeRewriter{titlesErr: rewrite.ErrRewrite}
	a := New(testCodec(t), rw, nil, nil)

	items := a.Assemble(context.Background(), rawBatch(), "cur")
	if len(items) != 2 {
		t.Fatalf("batch should survive rewrite failure, got %d items", len(items))
	}
	if items[0].Title != "A" || items[1].Title != "B" {
		t.Fatalf("titles should equal originals: %q, %q", items[0].Title, items[1].Title)
	}
}

func TestAssembleTokenizesImages(t *testing.T) {
	codec := testCodec(t)
	a := New(codec, &fakeRewriter{}, nil, nil)

	items := a.Assemble(context.Background(), rawBatch(), "")
	img := items[0].Image
	if !strings.HasPrefix(img, "https://api.example.com/image-urls?url=") {
		t.Fatalf("image should be a wrapped proxy URL: %q", img)
	}
	if strings.Contains(img, "x/1.png") {
		t.Fatalf("image URL leaks origin: %q", img)
	}
}

func TestSummarizeRewritesFieldsIndependently(t *testing.T) {
	art := &fakeArticle{data: &newsapi.ArticleData{
		Title: "原标题", FullText: "原正文", ImageURL: "http://x/i.png", Summary: "原摘要",
	}}
	// 标题改写失败，正文改写成功：只有标题回退
	rw := &fakeRewriter{
		text:    map[string]string{rewrite.SiteFullText: "改写正文"},
		textErr: map[string]error{rewrite.SiteTitle: rewrite.ErrRewrite},
	}
	a := New(testCodec(t), rw, nil, art)

	sum, err := a.Summarize(context.Background(), "http://x/article")
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if sum.Title != "原标题" {
		t.Fatalf("title should fall back to original: %q", sum.Title)
	}
	if sum.FullText != "改写正文" {
		t.Fatalf("full text should be rewritten: %q", sum.FullText)
	}
	if sum.Summary != "原摘要" {
		t.Fatalf("summary should pass through: %q", sum.Summary)
	}
	if !strings.HasPrefix(sum.Image, "https://api.example.com/image-urls?url=") {
		t.Fatalf("image should be tokenized: %q", sum.Image)
	}
}

func TestSummarizeReturnsNoDataSentinelWithoutRewriteCalls(t *testing.T) {
	art := &fakeArticle{data: &newsapi.ArticleData{Title: "", FullText: "", ImageURL: "", Summary: ""}}
	rw := &fakeRewriter{}
	a := New(testCodec(t), rw, nil, art)

	sum, err := a.Summarize(context.Background(), "http://x/article")
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	want := ArticleSummary{Title: NoData, FullText: NoData, Image: "", Summary: NoData}
	if *sum != want {
		t.Fatalf("sentinel mismatch: %+v", sum)
	}
	if rw.textCalls != 0 || rw.titleCalls != 0 {
		t.Fatalf("no rewrite calls expected for sentinel path, got text=%d titles=%d", rw.textCalls, rw.titleCalls)
	}
}

func TestSummarizePropagatesFetchFailure(t *testing.T) {
	art := &fakeArticle{err: newsapi.ErrUpstream}
	a := New(testCodec(t), &fakeRewriter{}, nil, art)

	if _, err := a.Summarize(context.Background(), "http://x/article"); !errors.Is(err, newsapi.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

type fakeFeed struct {
	latest     *newsapi.Page
	more       *newsapi.Page
	err        error
	moreCalls  int
	lastCursor string
}

func (f *fakeFeed) Latest(_ context.Context) (*newsapi.Page, error) {
	return f.latest, f.err
}

func (f *fakeFeed) More(_ context.Context, cursor string) (*newsapi.Page, error) {
	f.moreCalls++
	f.lastCursor = cursor
	return f.more, f.err
}

func TestLatestPropagatesUpstreamFailure(t *testing.T) {
	feed := &fakeFeed{err: newsapi.ErrUpstream}
	a := New(testCodec(t), &fakeRewriter{}, feed, nil)

	if _, err := a.Latest(context.Background()); !errors.Is(err, newsapi.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestMoreKeepsSuppliedCursorWhenUpstreamOmitsIt(t *testing.T) {
	feed := &fakeFeed{more: &newsapi.Page{News: rawBatch(), MinNewsID: ""}}
	a := New(testCodec(t), &fakeRewriter{}, feed, nil)

	items, err := a.More(context.Background(), "supplied")
	if err != nil {
		t.Fatalf("More error: %v", err)
	}
	if feed.lastCursor != "supplied" {
		t.Fatalf("cursor passed upstream = %q", feed.lastCursor)
	}
	for _, it := range items {
		if it.MinNewsID != "supplied" {
			t.Fatalf("item cursor = %q, want supplied", it.MinNewsID)
		}
	}
}
