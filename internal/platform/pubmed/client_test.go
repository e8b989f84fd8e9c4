package pubmed

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

const sampleFetchXML = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>12345678</PMID>
      <Article>
        <ArticleTitle>Migraine management in primary care</ArticleTitle>
        <Abstract>
          <AbstractText>Migraine is a common primary headache disorder.</AbstractText>
          <AbstractText>First-line treatment includes simple analgesics.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>87654321</PMID>
      <Article>
        <ArticleTitle>No abstract here</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseArticles(t *testing.T) {
	articles, err := parseArticles([]byte(sampleFetchXML))
	require.NoError(t, err)
	require.Len(t, articles, 2)

	require.Equal(t, "12345678", articles[0].PMID)
	require.Equal(t, "Migraine management in primary care", articles[0].Title)
	require.Contains(t, articles[0].Abstract, "primary headache disorder")
	require.Contains(t, articles[0].Abstract, "simple analgesics")

	require.Equal(t, "87654321", articles[1].PMID)
	require.Empty(t, articles[1].Abstract)
}

func TestParseArticlesTruncatesLongAbstract(t *testing.T) {
	long := strings.Repeat("a", 2*maxAbstractLength)
	xmlDoc := `<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>1</PMID><Article><ArticleTitle>t</ArticleTitle><Abstract><AbstractText>` + long + `</AbstractText></Abstract></Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

	articles, err := parseArticles([]byte(xmlDoc))
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Len(t, articles[0].Abstract, maxAbstractLength)
}

func TestParseArticlesTruncationKeepsValidUTF8(t *testing.T) {
	// "a" + 300 two-byte runes is 601 bytes; the cut at 600 would land
	// mid-rune and must back up to the rune boundary.
	long := "a" + strings.Repeat("é", 300)
	xmlDoc := `<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>1</PMID><Article><ArticleTitle>t</ArticleTitle><Abstract><AbstractText>` + long + `</AbstractText></Abstract></Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

	articles, err := parseArticles([]byte(xmlDoc))
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.True(t, utf8.ValidString(articles[0].Abstract))
	require.LessOrEqual(t, len(articles[0].Abstract), maxAbstractLength)
}

func TestTruncateRuneBoundary(t *testing.T) {
	require.Equal(t, "a", truncate("aé", 2))
	require.Equal(t, "aé", truncate("aé", 3))
	require.Equal(t, "", truncate("é", 1))
}

func TestParseArticlesRejectsGarbage(t *testing.T) {
	_, err := parseArticles([]byte("not xml at all <"))
	require.Error(t, err)
}
