package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"iconforge/internal/common"
	"iconforge/internal/models"
	"iconforge/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/gommon/random"
)

const (
	publicListingLimit = 100
	blobContentType    = "image/png"
	blobExtension      = "png"
	blobKeyRandomLen   = 13
)

type ImageService interface {
	Generate(ctx context.Context, userID, prompt string) (*models.Image, error)
	ListPublic(ctx context.Context, limit int) ([]*models.Image, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.Image, error)
	LatestByOwner(ctx context.Context, userID string) (*models.Image, error)
	SetHidden(ctx context.Context, userID string, id uuid.UUID, hidden bool) (*models.Image, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type imageService struct {
	imageRepo  repositories.ImageRepository
	credits    CreditService
	provider   GenerationProvider
	downloader ImageDownloader
	storage    StorageService
}

func NewImageService(
	imageRepo repositories.ImageRepository,
	credits CreditService,
	provider GenerationProvider,
	downloader ImageDownloader,
	storage StorageService,
) ImageService {
	return &imageService{
		imageRepo:  imageRepo,
		credits:    credits,
		provider:   provider,
		downloader: downloader,
		storage:    storage,
	}
}

// Generate runs the credit-gated generation workflow. Ordering invariant: the
// blob is stored before the metadata record is created, and the record exists
// before the credit is debited. There is no compensating rollback; a failure
// between upload and record insert leaves an orphan blob for the sweep job.
func (s *imageService) Generate(ctx context.Context, userID, prompt string) (*models.Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, common.ErrEmptyPrompt
	}

	// Gate before any external call so a broke user never spends provider quota.
	balance, err := s.credits.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		return nil, common.ErrInsufficientCredits
	}

	providerURL, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		log.Printf("generation provider call failed: %v", err)
		return nil, common.ErrGenerationFailed
	}

	data, err := s.downloader.Download(ctx, providerURL)
	if err != nil {
		log.Printf("image download failed: %v", err)
		return nil, common.ErrGenerationFailed
	}

	key := newBlobKey()
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), blobContentType); err != nil {
		return nil, err
	}

	image := &models.Image{
		ID:        uuid.New(),
		OwnerID:   userID,
		Prompt:    prompt,
		URL:       s.storage.PublicURL(key),
		Hidden:    false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		return nil, err
	}

	// The record exists at this point; a failed debit leaves the user
	// uncharged rather than charged without an image.
	if err := s.credits.Debit(ctx, userID); err != nil {
		log.Printf("credit debit failed for user %s after generation: %v", userID, err)
	}

	return image, nil
}

func (s *imageService) ListPublic(ctx context.Context, limit int) ([]*models.Image, error) {
	if limit <= 0 || limit > publicListingLimit {
		limit = publicListingLimit
	}
	return s.imageRepo.ListPublic(ctx, limit)
}

func (s *imageService) ListByOwner(ctx context.Context, userID string) ([]*models.Image, error) {
	return s.imageRepo.ListByOwner(ctx, userID)
}

func (s *imageService) LatestByOwner(ctx context.Context, userID string) (*models.Image, error) {
	image, err := s.imageRepo.LatestByOwner(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return image, err
}

func (s *imageService) SetHidden(ctx context.Context, userID string, id uuid.UUID, hidden bool) (*models.Image, error) {
	if _, err := s.ownedImage(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.imageRepo.SetHidden(ctx, id, hidden)
}

// Delete removes the metadata row first, then the backing blob. A failed blob
// removal is logged and left to the reconciliation sweep.
func (s *imageService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	image, err := s.ownedImage(ctx, userID, id)
	if err != nil {
		return err
	}

	deleted, err := s.imageRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return common.ErrNotFound
	}

	if key := blobKeyFromURL(image.URL); key != "" {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Printf("blob delete failed for %s: %v", key, err)
		}
	}
	return nil
}

func (s *imageService) ownedImage(ctx context.Context, userID string, id uuid.UUID) (*models.Image, error) {
	image, err := s.imageRepo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if image.OwnerID != userID {
		return nil, common.ErrNotOwner
	}
	return image, nil
}

// newBlobKey builds a collision-free key without coordination:
// <unix-millis>-<random-alphanumeric>.<ext>.
func newBlobKey() string {
	suffix := strings.ToLower(random.String(blobKeyRandomLen))
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), suffix, blobExtension)
}

func blobKeyFromURL(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return ""
	}
	return url[idx+1:]
}
