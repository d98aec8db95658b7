package services

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/model"
	"github.com/couponhub/coupon_api/shared"
)

type PostgresService struct {
	appContext.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *appContext.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "coupon_api"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			host, user, password, dbname, port, sslmode)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.WithField("category", "database").Infof("Connecting to database (attempt %d/%d)", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Error),
			TranslateError: true,
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					break
				} else {
					err = pingErr
				}
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			return err
		}

		time.Sleep(retryDelay)
		retryDelay *= 2
	}

	return ds.db.AutoMigrate(
		&model.User{},
		&model.Brand{},
		&model.Category{},
		&model.Coupon{},
		&model.Favorite{},
		&model.AuditLog{},
	)
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// HandleError translates storage failures into the error taxonomy before
// they leave the data layer: duplicate key -> Conflict, missing record ->
// NotFound, foreign key violation -> Validation, everything else ->
// Database.
func (ds *PostgresService) HandleError(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *shared.AppError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		appErr = shared.NewNotFoundError(err, message)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		appErr = shared.NewConflictError(err, message)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		appErr = shared.NewValidationError(err, message)
	default:
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			appErr = shared.NewConflictError(err, message)
		} else {
			appErr = shared.NewDatabaseError(err, message)
		}
	}

	logEntry := log.WithFields(log.Fields{
		"category":   shared.CategoryDatabase,
		"error_kind": string(appErr.Kind),
		"error":      err.Error(),
	})

	if appErr.StatusCode() >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return appErr
}

// ==================== USERS ====================

func (ds *PostgresService) CreateUser(user *model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := ds.db.Create(user).Error; err != nil {
		return nil, ds.HandleError(err, "Failed to create user")
	}
	return user, nil
}

func (ds *PostgresService) GetUserByID(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ds.HandleError(err, "User not found")
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := ds.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, ds.HandleError(err, "User not found")
	}
	return &user, nil
}

func (ds *PostgresService) UpdateUser(user *model.User) error {
	if err := ds.db.Save(user).Error; err != nil {
		return ds.HandleError(err, "Failed to update user")
	}
	return nil
}

// ==================== BRANDS ====================

func (ds *PostgresService) CreateBrand(brand *model.Brand) (*model.Brand, error) {
	if brand.ID == "" {
		brand.ID = uuid.NewString()
	}
	if err := ds.db.Create(brand).Error; err != nil {
		return nil, ds.HandleError(err, "Failed to create brand")
	}
	return brand, nil
}

func (ds *PostgresService) GetBrand(id string) (*model.Brand, error) {
	var brand model.Brand
	if err := ds.db.First(&brand, "id = ?", id).Error; err != nil {
		return nil, ds.HandleError(err, "Brand not found")
	}
	return &brand, nil
}

func (ds *PostgresService) GetBrandBySlug(slug string) (*model.Brand, error) {
	var brand model.Brand
	if err := ds.db.First(&brand, "slug = ?", slug).Error; err != nil {
		return nil, ds.HandleError(err, "Brand not found")
	}
	return &brand, nil
}

func (ds *PostgresService) GetBrands(activeOnly bool) ([]model.Brand, error) {
	var brands []model.Brand
	query := ds.db.Order("name asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&brands).Error; err != nil {
		return nil, ds.HandleError(err, "Failed to list brands")
	}
	return brands, nil
}

func (ds *PostgresService) UpdateBrand(brand *model.Brand) error {
	if err := ds.db.Save(brand).Error; err != nil {
		return ds.HandleError(err, "Failed to update brand")
	}
	return nil
}

func (ds *PostgresService) DeleteBrand(id string) error {
	result := ds.db.Delete(&model.Brand{}, "id = ?", id)
	if result.Error != nil {
		return ds.HandleError(result.Error, "Failed to delete brand")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(gorm.ErrRecordNotFound, "Brand not found")
	}
	return nil
}

// ==================== CATEGORIES ====================

func (ds *PostgresService) CreateCategory(category *model.Category) (*model.Category, error) {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if err := ds.db.Create(category).Error; err != nil {
		return nil, ds.HandleError(err, "Failed to create category")
	}
	return category, nil
}

func (ds *PostgresService) GetCategoryBySlug(slug string) (*model.Category, error) {
	var category model.Category
	if err := ds.db.First(&category, "slug = ?", slug).Error; err != nil {
		return nil, ds.HandleError(err, "Category not found")
	}
	return &category, nil
}

func (ds *PostgresService) GetCategories(activeOnly bool) ([]model.Category, error) {
	var categories []model.Category
	query := ds.db.Order("name asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&categories).Error; err != nil {
		return nil, ds.HandleError(err, "Failed to list categories")
	}
	return categories, nil
}

func (ds *PostgresService) DeleteCategory(id string) error {
	result := ds.db.Delete(&model.Category{}, "id = ?", id)
	if result.Error != nil {
		return ds.HandleError(result.Error, "Failed to delete category")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(gorm.ErrRecordNotFound, "Category not found")
	}
	return nil
}

// ==================== COUPONS ====================

func (ds *PostgresService) CreateCoupon(coupon *model.Coupon) (*model.Coupon, error) {
	if coupon.ID == "" {
		coupon.ID = uuid.NewString()
	}
	if err := ds.db.Create(coupon).Error; err != nil {
		return nil, ds.HandleError(err, "Failed to create coupon")
	}
	return coupon, nil
}

func (ds *PostgresService) GetCoupon(id string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := ds.db.First(&coupon, "id = ?", id).Error; err != nil {
		return nil, ds.HandleError(err, "Coupon not found")
	}
	return &coupon, nil
}

func (ds *PostgresService) SearchCoupons(filter dto.CouponFilter) ([]model.Coupon, int64, error) {
	query := ds.db.Model(&model.Coupon{}).Where("coupons.is_active = ?", true)

	if filter.BrandSlug != "" {
		query = query.Joins("JOIN brands ON brands.id = coupons.brand_id").
			Where("brands.slug = ?", filter.BrandSlug)
	}
	if filter.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = coupons.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("coupons.title ILIKE ? OR coupons.description ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, ds.HandleError(err, "Failed to count coupons")
	}

	var coupons []model.Coupon
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("coupons.created_at desc").Offset(offset).Limit(filter.Limit).Find(&coupons).Error; err != nil {
		return nil, 0, ds.HandleError(err, "Failed to search coupons")
	}

	return coupons, total, nil
}

func (ds *PostgresService) UpdateCoupon(coupon *model.Coupon) error {
	if err := ds.db.Save(coupon).Error; err != nil {
		return ds.HandleError(err, "Failed to update coupon")
	}
	return nil
}

func (ds *PostgresService) DeleteCoupon(id string) error {
	result := ds.db.Delete(&model.Coupon{}, "id = ?", id)
	if result.Error != nil {
		return ds.HandleError(result.Error, "Failed to delete coupon")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(gorm.ErrRecordNotFound, "Coupon not found")
	}
	return nil
}

func (ds *PostgresService) IncrementCouponClicks(id string) error {
	err := ds.db.Model(&model.Coupon{}).Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
	if err != nil {
		return ds.HandleError(err, "Failed to record coupon click")
	}
	return nil
}

// ==================== FAVORITES ====================

func (ds *PostgresService) AddFavorite(userID, couponID string) error {
	fav := model.Favorite{ID: uuid.NewString(), UserID: userID, CouponID: couponID}
	if err := ds.db.Create(&fav).Error; err != nil {
		return ds.HandleError(err, "Coupon is already a favorite")
	}
	return nil
}

func (ds *PostgresService) RemoveFavorite(userID, couponID string) error {
	result := ds.db.Delete(&model.Favorite{}, "user_id = ? AND coupon_id = ?", userID, couponID)
	if result.Error != nil {
		return ds.HandleError(result.Error, "Failed to remove favorite")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(gorm.ErrRecordNotFound, "Favorite not found")
	}
	return nil
}

func (ds *PostgresService) GetFavoriteCoupons(userID string) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := ds.db.Joins("JOIN favorites ON favorites.coupon_id = coupons.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at desc").
		Find(&coupons).Error
	if err != nil {
		return nil, ds.HandleError(err, "Failed to list favorites")
	}
	return coupons, nil
}

// ==================== AUDIT LOGS ====================

func (ds *PostgresService) CreateAuditLog(entry *model.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := ds.db.Create(entry).Error; err != nil {
		return ds.HandleError(err, "Failed to persist audit log")
	}
	return nil
}

func (ds *PostgresService) GetAuditLogs(filter dto.AuditLogFilter) ([]model.AuditLog, int64, error) {
	query := ds.db.Model(&model.AuditLog{})

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, ds.HandleError(err, "Failed to count audit logs")
	}

	var logs []model.AuditLog
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("timestamp desc").Offset(offset).Limit(filter.Limit).Find(&logs).Error; err != nil {
		return nil, 0, ds.HandleError(err, "Failed to query audit logs")
	}

	return logs, total, nil
}
