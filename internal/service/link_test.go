package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var errUnknown = errors.New("unknown error")

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, originalLink, shortLink string, userID int64) (*models.Link, error) {
	args := m.Called(ctx, originalLink, shortLink, userID)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkRepository) ExistsByShortLink(ctx context.Context, shortLink string) (bool, error) {
	args := m.Called(ctx, shortLink)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkRepository) ExistsByOriginalAndUser(ctx context.Context, originalLink string, userID int64) (bool, error) {
	args := m.Called(ctx, originalLink, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkRepository) GetByShortLink(ctx context.Context, shortLink string) (*models.Link, error) {
	args := m.Called(ctx, shortLink)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id int64) (*models.Link, error) {
	args := m.Called(ctx, id)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkRepository) Update(ctx context.Context, id int64, originalLink string) (*models.Link, error) {
	args := m.Called(ctx, id, originalLink)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkRepository) FilterByAttribute(ctx context.Context, attribute, value string) ([]models.Link, error) {
	args := m.Called(ctx, attribute, value)
	links, _ := args.Get(0).([]models.Link)
	return links, args.Error(1)
}

func (m *MockLinkRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Link, error) {
	args := m.Called(ctx, from, to)
	links, _ := args.Get(0).([]models.Link)
	return links, args.Error(1)
}

// isShortLink reports whether a candidate has the configured length and
// only draws from the case-sensitive alphanumeric alphabet.
func isShortLink(length int) func(string) bool {
	return func(code string) bool {
		if len(code) != length {
			return false
		}
		for _, r := range code {
			if !strings.ContainsRune(shortLinkAlphabet, r) {
				return false
			}
		}
		return true
	}
}

func TestLinkService_ShortenLink(t *testing.T) {
	ctx := context.TODO()

	t.Run("missing user id", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		link, err := svc.ShortenLink(ctx, "https://example.com", 0)

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrUserIDRequired)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})

	t.Run("invalid url", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		for _, originalLink := range []string{
			"",
			"not a url",
			"example.com/no-scheme",
			"ftp://example.com/file",
			"https://",
		} {
			link, err := svc.ShortenLink(ctx, originalLink, 1)

			assert.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidURL)
			assert.Nil(t, link)
		}

		repo.AssertExpectations(t)
	})

	t.Run("duplicate link for user", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("ExistsByOriginalAndUser", ctx, "https://example.com", int64(1)).
			Return(true, nil).Once()

		link, err := svc.ShortenLink(ctx, "https://example.com", 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkExists)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		wantLink := &models.Link{ID: 1, OriginalLink: "https://example.com", ShortLink: "aB3x", UserID: 1}

		repo.On("ExistsByOriginalAndUser", ctx, "https://example.com", int64(1)).
			Return(false, nil).Once()
		repo.On("ExistsByShortLink", ctx, mock.MatchedBy(isShortLink(4))).
			Return(false, nil).Once()
		repo.On("Create", ctx, "https://example.com", mock.MatchedBy(isShortLink(4)), int64(1)).
			Return(wantLink, nil).Once()

		link, err := svc.ShortenLink(ctx, "https://example.com", 1)

		assert.NoError(t, err)
		assert.Equal(t, wantLink, link)
		repo.AssertExpectations(t)
	})

	t.Run("taken candidate is retried", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		wantLink := &models.Link{ID: 1, OriginalLink: "https://example.com", ShortLink: "Zz9q", UserID: 1}

		repo.On("ExistsByOriginalAndUser", ctx, "https://example.com", int64(1)).
			Return(false, nil).Once()
		repo.On("ExistsByShortLink", ctx, mock.MatchedBy(isShortLink(4))).
			Return(true, nil).Twice()
		repo.On("ExistsByShortLink", ctx, mock.MatchedBy(isShortLink(4))).
			Return(false, nil).Once()
		repo.On("Create", ctx, "https://example.com", mock.MatchedBy(isShortLink(4)), int64(1)).
			Return(wantLink, nil).Once()

		link, err := svc.ShortenLink(ctx, "https://example.com", 1)

		assert.NoError(t, err)
		assert.Equal(t, wantLink, link)
		repo.AssertExpectations(t)
	})

	t.Run("lost insert race is retried", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		wantLink := &models.Link{ID: 1, OriginalLink: "https://example.com", ShortLink: "Zz9q", UserID: 1}

		repo.On("ExistsByOriginalAndUser", ctx, "https://example.com", int64(1)).
			Return(false, nil).Once()
		repo.On("ExistsByShortLink", ctx, mock.MatchedBy(isShortLink(4))).
			Return(false, nil).Twice()
		repo.On("Create", ctx, "https://example.com", mock.MatchedBy(isShortLink(4)), int64(1)).
			Return(nil, database.ErrShortLinkExists).Once()
		repo.On("Create", ctx, "https://example.com", mock.MatchedBy(isShortLink(4)), int64(1)).
			Return(wantLink, nil).Once()

		link, err := svc.ShortenLink(ctx, "https://example.com", 1)

		assert.NoError(t, err)
		assert.Equal(t, wantLink, link)
		repo.AssertExpectations(t)
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("ExistsByOriginalAndUser", ctx, "https://example.com", int64(1)).
			Return(false, nil).Once()
		repo.On("ExistsByShortLink", ctx, mock.MatchedBy(isShortLink(4))).
			Return(true, nil).Times(5)

		link, err := svc.ShortenLink(ctx, "https://example.com", 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})

	t.Run("same link for another user", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		wantLink := &models.Link{ID: 2, OriginalLink: "https://example.com", ShortLink: "Q7wD", UserID: 2}

		repo.On("ExistsByOriginalAndUser", ctx, "https://example.com", int64(2)).
			Return(false, nil).Once()
		repo.On("ExistsByShortLink", ctx, mock.MatchedBy(isShortLink(4))).
			Return(false, nil).Once()
		repo.On("Create", ctx, "https://example.com", mock.MatchedBy(isShortLink(4)), int64(2)).
			Return(wantLink, nil).Once()

		link, err := svc.ShortenLink(ctx, "https://example.com", 2)

		assert.NoError(t, err)
		assert.Equal(t, wantLink, link)
		repo.AssertExpectations(t)
	})

	t.Run("unknown error", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("ExistsByOriginalAndUser", ctx, "https://example.com", int64(1)).
			Return(false, errUnknown).Once()

		link, err := svc.ShortenLink(ctx, "https://example.com", 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})
}

func TestLinkService_ResolveShortLink(t *testing.T) {
	ctx := context.TODO()
	baseURLs := []string{"https://linkcurt.io/", "http://linkcurt.io/"}

	t.Run("link not found", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, baseURLs)

		repo.On("GetByShortLink", ctx, "zzzz").
			Return(nil, database.ErrLinkNotFound).Once()

		link, err := svc.ResolveShortLink(ctx, "zzzz")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})

	t.Run("bare code", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, baseURLs)

		wantLink := &models.Link{ID: 1, OriginalLink: "https://example.com", ShortLink: "aB3x", UserID: 1}

		repo.On("GetByShortLink", ctx, "aB3x").
			Return(wantLink, nil).Once()

		link, err := svc.ResolveShortLink(ctx, "aB3x")

		assert.NoError(t, err)
		assert.Equal(t, wantLink, link)
		repo.AssertExpectations(t)
	})

	t.Run("full short url", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, baseURLs)

		wantLink := &models.Link{ID: 1, OriginalLink: "https://example.com", ShortLink: "aB3x", UserID: 1}

		repo.On("GetByShortLink", ctx, "aB3x").
			Return(wantLink, nil).Once()

		link, err := svc.ResolveShortLink(ctx, "https://linkcurt.io/aB3x")

		assert.NoError(t, err)
		assert.Equal(t, wantLink, link)
		repo.AssertExpectations(t)
	})

	t.Run("case sensitive lookup", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, baseURLs)

		repo.On("GetByShortLink", ctx, "AB3X").
			Return(nil, database.ErrLinkNotFound).Once()

		link, err := svc.ResolveShortLink(ctx, "AB3X")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})
}

func TestLinkService_ModifyLink(t *testing.T) {
	ctx := context.TODO()

	t.Run("invalid url", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		link, err := svc.ModifyLink(ctx, 1, "not a url")

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidURL)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})

	t.Run("link not found", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("Update", ctx, int64(2), "https://new-example.com").
			Return(nil, database.ErrLinkNotFound).Once()

		link, err := svc.ModifyLink(ctx, 2, "https://new-example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		repo.AssertExpectations(t)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		wantLink := &models.Link{ID: 1, OriginalLink: "https://new-example.com", ShortLink: "aB3x", UserID: 1}

		repo.On("Update", ctx, int64(1), "https://new-example.com").
			Return(wantLink, nil).Once()

		link, err := svc.ModifyLink(ctx, 1, "https://new-example.com")

		assert.NoError(t, err)
		assert.Equal(t, wantLink, link)
		repo.AssertExpectations(t)
	})
}

func TestLinkService_RemoveLink(t *testing.T) {
	ctx := context.TODO()

	t.Run("link not found", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("Delete", ctx, int64(2)).
			Return(database.ErrLinkNotFound).Once()

		err := svc.RemoveLink(ctx, 2)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		repo.AssertExpectations(t)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("Delete", ctx, int64(1)).
			Return(nil).Once()

		err := svc.RemoveLink(ctx, 1)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestLinkService_FilterLinks(t *testing.T) {
	ctx := context.TODO()

	t.Run("unknown attribute", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("FilterByAttribute", ctx, "password_hash", "x").
			Return(nil, database.ErrUnknownAttribute).Once()

		links, err := svc.FilterLinks(ctx, "password_hash", "x")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrUnknownAttribute)
		assert.Nil(t, links)
		repo.AssertExpectations(t)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		wantLinks := []models.Link{
			{ID: 1, OriginalLink: "https://example.com", ShortLink: "aB3x", UserID: 1},
		}

		repo.On("FilterByAttribute", ctx, "user", "1").
			Return(wantLinks, nil).Once()

		links, err := svc.FilterLinks(ctx, "user", "1")

		assert.NoError(t, err)
		assert.Equal(t, wantLinks, links)
		repo.AssertExpectations(t)
	})
}

func TestLinkService_ListLinksByDateRange(t *testing.T) {
	ctx := context.TODO()
	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

	t.Run("unknown error", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		repo.On("ListByDateRange", ctx, from, to).
			Return(nil, errUnknown).Once()

		links, err := svc.ListLinksByDateRange(ctx, from, to)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, links)
		repo.AssertExpectations(t)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := NewLinkService(repo, 4, nil)

		wantLinks := []models.Link{
			{ID: 1, OriginalLink: "https://example.com", ShortLink: "aB3x", UserID: 1},
		}

		repo.On("ListByDateRange", ctx, from, to).
			Return(wantLinks, nil).Once()

		links, err := svc.ListLinksByDateRange(ctx, from, to)

		assert.NoError(t, err)
		assert.Equal(t, wantLinks, links)
		repo.AssertExpectations(t)
	})
}
