package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"iconforge/internal/common"
	"iconforge/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// Mock repositories and services

type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) Create(ctx context.Context, image *models.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockImageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageRepository) ListPublic(ctx context.Context, limit int) ([]*models.Image, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.Image), args.Error(1)
}

func (m *MockImageRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Image, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]*models.Image), args.Error(1)
}

func (m *MockImageRepository) LatestByOwner(ctx context.Context, ownerID string) (*models.Image, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageRepository) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) (*models.Image, error) {
	args := m.Called(ctx, id, hidden)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockImageRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	args := m.Called(ctx, url)
	return args.Bool(0), args.Error(1)
}

type MockCreditService struct {
	mock.Mock
}

func (m *MockCreditService) Balance(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockCreditService) Debit(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCreditService) Credit(ctx context.Context, userID string, amount int) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockCreditService) Account(ctx context.Context, userID string) (*models.CreditAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditAccount), args.Error(1)
}

type MockGenerationProvider struct {
	mock.Mock
}

func (m *MockGenerationProvider) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockImageDownloader struct {
	mock.Mock
}

func (m *MockImageDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}

func (m *MockStorageService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorageService) List(ctx context.Context) ([]BlobObject, error) {
	args := m.Called(ctx)
	return args.Get(0).([]BlobObject), args.Error(1)
}

func (m *MockStorageService) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorageService) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

type ImageServiceTestSuite struct {
	suite.Suite
	imageRepo  *MockImageRepository
	credits    *MockCreditService
	provider   *MockGenerationProvider
	downloader *MockImageDownloader
	storage    *MockStorageService
	service    ImageService
	context    context.Context
}

func (suite *ImageServiceTestSuite) SetupTest() {
	suite.imageRepo = &MockImageRepository{}
	suite.credits = &MockCreditService{}
	suite.provider = &MockGenerationProvider{}
	suite.downloader = &MockImageDownloader{}
	suite.storage = &MockStorageService{}
	suite.service = NewImageService(suite.imageRepo, suite.credits, suite.provider, suite.downloader, suite.storage)
	suite.context = context.Background()
}

func TestImageServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImageServiceTestSuite))
}

func (suite *ImageServiceTestSuite) TestGenerate_EmptyPromptFailsBeforeCreditCheck() {
	_, err := suite.service.Generate(suite.context, "user_abc", "   ")
	assert.ErrorIs(suite.T(), err, common.ErrEmptyPrompt)

	suite.credits.AssertNotCalled(suite.T(), "Balance", mock.Anything, mock.Anything)
	suite.provider.AssertNotCalled(suite.T(), "Generate", mock.Anything, mock.Anything)
}

func (suite *ImageServiceTestSuite) TestGenerate_ZeroBalanceMakesNoProviderCall() {
	suite.credits.On("Balance", mock.Anything, "user_broke").Return(0, nil)

	_, err := suite.service.Generate(suite.context, "user_broke", "a red fox")
	assert.ErrorIs(suite.T(), err, common.ErrInsufficientCredits)

	suite.provider.AssertNotCalled(suite.T(), "Generate", mock.Anything, mock.Anything)
	suite.storage.AssertNotCalled(suite.T(), "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.imageRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	suite.credits.AssertNotCalled(suite.T(), "Debit", mock.Anything, mock.Anything)
}

func (suite *ImageServiceTestSuite) TestGenerate_SuccessDebitsExactlyOnce() {
	var callOrder []string

	suite.credits.On("Balance", mock.Anything, "user_abc").Return(3, nil)
	suite.provider.On("Generate", mock.Anything, "a red fox").Return("https://provider/tmp.png", nil)
	suite.downloader.On("Download", mock.Anything, "https://provider/tmp.png").Return([]byte("png-bytes"), nil)
	suite.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, int64(9), "image/png").
		Run(func(args mock.Arguments) { callOrder = append(callOrder, "upload") }).
		Return(nil)
	suite.storage.On("PublicURL", mock.Anything).Return("https://bucket.s3.amazonaws.com/key.png")
	suite.imageRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { callOrder = append(callOrder, "create") }).
		Return(nil)
	suite.credits.On("Debit", mock.Anything, "user_abc").
		Run(func(args mock.Arguments) { callOrder = append(callOrder, "debit") }).
		Return(nil)

	image, err := suite.service.Generate(suite.context, "user_abc", "a red fox")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "user_abc", image.OwnerID)
	assert.Equal(suite.T(), "a red fox", image.Prompt)
	assert.Equal(suite.T(), "https://bucket.s3.amazonaws.com/key.png", image.URL)
	assert.False(suite.T(), image.Hidden)

	// Blob before record, record before debit.
	assert.Equal(suite.T(), []string{"upload", "create", "debit"}, callOrder)
	suite.credits.AssertNumberOfCalls(suite.T(), "Debit", 1)
	suite.provider.AssertNumberOfCalls(suite.T(), "Generate", 1)
}

func (suite *ImageServiceTestSuite) TestGenerate_ProviderFailureIsOpaque() {
	suite.credits.On("Balance", mock.Anything, "user_abc").Return(3, nil)
	suite.provider.On("Generate", mock.Anything, "a red fox").Return("", errors.New("quota exceeded"))

	_, err := suite.service.Generate(suite.context, "user_abc", "a red fox")
	assert.ErrorIs(suite.T(), err, common.ErrGenerationFailed)

	suite.storage.AssertNotCalled(suite.T(), "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.imageRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	suite.credits.AssertNotCalled(suite.T(), "Debit", mock.Anything, mock.Anything)
}

func (suite *ImageServiceTestSuite) TestGenerate_DownloadFailureIsOpaque() {
	suite.credits.On("Balance", mock.Anything, "user_abc").Return(3, nil)
	suite.provider.On("Generate", mock.Anything, "a red fox").Return("https://provider/tmp.png", nil)
	suite.downloader.On("Download", mock.Anything, "https://provider/tmp.png").Return(nil, errors.New("timeout"))

	_, err := suite.service.Generate(suite.context, "user_abc", "a red fox")
	assert.ErrorIs(suite.T(), err, common.ErrGenerationFailed)
	suite.credits.AssertNotCalled(suite.T(), "Debit", mock.Anything, mock.Anything)
}

func (suite *ImageServiceTestSuite) TestGenerate_FailedDebitKeepsImage() {
	suite.credits.On("Balance", mock.Anything, "user_abc").Return(1, nil)
	suite.provider.On("Generate", mock.Anything, "a red fox").Return("https://provider/tmp.png", nil)
	suite.downloader.On("Download", mock.Anything, "https://provider/tmp.png").Return([]byte("png-bytes"), nil)
	suite.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.storage.On("PublicURL", mock.Anything).Return("https://bucket.s3.amazonaws.com/key.png")
	suite.imageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	suite.credits.On("Debit", mock.Anything, "user_abc").Return(common.ErrInsufficientCredits)

	// The record exists by the time the debit runs; the user keeps the image.
	image, err := suite.service.Generate(suite.context, "user_abc", "a red fox")
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), image)
}

func (suite *ImageServiceTestSuite) TestListPublic_ClampsLimit() {
	suite.imageRepo.On("ListPublic", mock.Anything, 100).Return([]*models.Image{}, nil)

	_, err := suite.service.ListPublic(suite.context, 0)
	assert.NoError(suite.T(), err)
	_, err = suite.service.ListPublic(suite.context, 5000)
	assert.NoError(suite.T(), err)

	suite.imageRepo.AssertNumberOfCalls(suite.T(), "ListPublic", 2)
}

func (suite *ImageServiceTestSuite) TestSetHidden_OwnerOnly() {
	id := uuid.New()
	suite.imageRepo.On("GetByID", mock.Anything, id).
		Return(&models.Image{ID: id, OwnerID: "user_owner", Hidden: false}, nil)

	_, err := suite.service.SetHidden(suite.context, "user_other", id, true)
	assert.ErrorIs(suite.T(), err, common.ErrNotOwner)
	suite.imageRepo.AssertNotCalled(suite.T(), "SetHidden", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImageServiceTestSuite) TestSetHidden_UnknownImage() {
	id := uuid.New()
	suite.imageRepo.On("GetByID", mock.Anything, id).Return(nil, pgx.ErrNoRows)

	_, err := suite.service.SetHidden(suite.context, "user_abc", id, true)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ImageServiceTestSuite) TestSetHidden_DoubleToggleRoundTrips() {
	id := uuid.New()
	record := &models.Image{ID: id, OwnerID: "user_abc", Hidden: false, CreatedAt: time.Now()}

	suite.imageRepo.On("GetByID", mock.Anything, id).Return(record, nil)
	suite.imageRepo.On("SetHidden", mock.Anything, id, true).
		Return(&models.Image{ID: id, OwnerID: "user_abc", Hidden: true}, nil)
	suite.imageRepo.On("SetHidden", mock.Anything, id, false).
		Return(&models.Image{ID: id, OwnerID: "user_abc", Hidden: false}, nil)

	hidden, err := suite.service.SetHidden(suite.context, "user_abc", id, true)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), hidden.Hidden)

	visible, err := suite.service.SetHidden(suite.context, "user_abc", id, false)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), record.Hidden, visible.Hidden)
}

func (suite *ImageServiceTestSuite) TestDelete_RemovesRecordThenBlob() {
	id := uuid.New()
	suite.imageRepo.On("GetByID", mock.Anything, id).
		Return(&models.Image{ID: id, OwnerID: "user_abc", URL: "https://bucket.s3.amazonaws.com/123-abc.png"}, nil)
	suite.imageRepo.On("Delete", mock.Anything, id).Return(true, nil)
	suite.storage.On("Delete", mock.Anything, "123-abc.png").Return(nil)

	err := suite.service.Delete(suite.context, "user_abc", id)
	assert.NoError(suite.T(), err)
	suite.storage.AssertCalled(suite.T(), "Delete", mock.Anything, "123-abc.png")
}

func (suite *ImageServiceTestSuite) TestDelete_UnknownImage() {
	id := uuid.New()
	suite.imageRepo.On("GetByID", mock.Anything, id).Return(nil, pgx.ErrNoRows)

	err := suite.service.Delete(suite.context, "user_abc", id)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
	suite.imageRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *ImageServiceTestSuite) TestDelete_NotOwner() {
	id := uuid.New()
	suite.imageRepo.On("GetByID", mock.Anything, id).
		Return(&models.Image{ID: id, OwnerID: "user_owner"}, nil)

	err := suite.service.Delete(suite.context, "user_other", id)
	assert.ErrorIs(suite.T(), err, common.ErrNotOwner)
	suite.imageRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *ImageServiceTestSuite) TestLatestByOwner_NoImages() {
	suite.imageRepo.On("LatestByOwner", mock.Anything, "user_new").Return(nil, pgx.ErrNoRows)

	_, err := suite.service.LatestByOwner(suite.context, "user_new")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}
