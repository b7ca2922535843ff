package export

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestExtractKeywordsUnionOrder(t *testing.T) {
	body := "keywords: ai, governance #research **deep dive**"
	got := ExtractKeywords(body)
	want := []string{"ai", "governance", "research", "deep dive"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsExplicitLineLowercasesAndTrims(t *testing.T) {
	got := ExtractKeywords("Keywords:  AI ,  Civic Tech ,\nrest of post")
	want := []string{"ai", "civic tech"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsSingularLabel(t *testing.T) {
	got := ExtractKeywords("keyword: merge")
	want := []string{"merge"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsHashtagCasePreserved(t *testing.T) {
	got := ExtractKeywords("notes #GoLang #ai-policy #GoLang")
	want := []string{"GoLang", "ai-policy"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsBoldSpanWordCount(t *testing.T) {
	body := "**one** **two words** **three word span** **a four word phrase** **five words is too many**"
	got := ExtractKeywords(body)
	want := []string{"two words", "three word span", "a four word phrase"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsBoldSkippedWhenAlreadyCollected(t *testing.T) {
	got := ExtractKeywords("keywords: deep dive\nmore on the **Deep Dive** tomorrow")
	want := []string{"deep dive"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "#tag%02d ", i)
	}
	got := ExtractKeywords(sb.String())
	if len(got) != maxKeywords {
		t.Fatalf("expected cap at %d keywords, got %d", maxKeywords, len(got))
	}
	if got[0] != "tag00" || got[maxKeywords-1] != "tag14" {
		t.Fatalf("cap should keep the first seen entries, got %v", got)
	}
}

func TestExtractKeywordsEmptyIsNil(t *testing.T) {
	if got := ExtractKeywords("nothing taggable here"); got != nil {
		t.Fatalf("expected nil for no keywords, got %v", got)
	}
}
