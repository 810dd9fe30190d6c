package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"campusfind/internal/models"
	"campusfind/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCrawlerDB(t *testing.T) (*gorm.DB, repository.EverytimeRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EverytimePost{}))
	return db, repository.NewEverytimeRepository(db)
}

func articleHTML(id int, title string) string {
	return fmt.Sprintf(`<article>
		<a href="/p/%d"><h2>%s</h2></a>
		<p class="medium">body text for post %d</p>
		<time class="small">08/31 10:%02d</time>
	</article>`, id, title, id, id%60)
}

func TestCrawler_Run(t *testing.T) {
	// Two pages of content, then an empty page ending the board.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, "<html><body>"+articleHTML(1, "Lost my wallet at the library")+articleHTML(2, "Found a USB drive")+"</body></html>")
		case "2":
			fmt.Fprint(w, "<html><body>"+articleHTML(3, "Anyone seen a blue umbrella?")+"</body></html>")
		default:
			fmt.Fprint(w, "<html><body></body></html>")
		}
	}))
	defer server.Close()

	_, repo := setupCrawlerDB(t)
	c := New(repo, server.URL+"/board", 10)

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.PagesVisited)
	assert.Equal(t, 3, result.PostsStored)
	assert.Equal(t, 0, result.Skipped)

	count, err := repo.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)

	stored, err := repo.GetByLink(context.Background(), server.URL+"/p/1")
	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Lost my wallet at the library", stored.Title)
	assert.Equal(t, "body text for post 1", stored.Content)
	assert.Equal(t, "08/31 10:01", stored.Time)
}

func TestCrawler_RerunDeduplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, "<html><body>"+articleHTML(7, "Repeated post")+"</body></html>")
			return
		}
		fmt.Fprint(w, "<html><body></body></html>")
	}))
	defer server.Close()

	_, repo := setupCrawlerDB(t)
	c := New(repo, server.URL+"/board", 5)

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	_, err = c.Run(context.Background())
	require.NoError(t, err)

	count, _ := repo.Count(context.Background())
	assert.Equal(t, int64(1), count)
}

func TestCrawler_SkipsArticlesWithoutTitleOrLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `<html><body>
				<article><p class="medium">no title, no link</p></article>
				`+articleHTML(9, "A proper post")+`
			</body></html>`)
			return
		}
		fmt.Fprint(w, "<html><body></body></html>")
	}))
	defer server.Close()

	_, repo := setupCrawlerDB(t)
	c := New(repo, server.URL+"/board", 5)

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.PostsStored)
}

func TestCrawler_AbortsOnPersistentFailure(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, repo := setupCrawlerDB(t)
	c := New(repo, server.URL+"/board", 5)

	result, err := c.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, result.PagesVisited)
	// Bounded retries: the failing page is attempted a fixed number of
	// times, not forever.
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestCrawler_RequiresBoardURL(t *testing.T) {
	_, repo := setupCrawlerDB(t)
	c := New(repo, "", 5)

	_, err := c.Run(context.Background())
	assert.Error(t, err)
}
