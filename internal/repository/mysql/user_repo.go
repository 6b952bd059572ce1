package mysql

import (
	"context"

	"community_hub/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var usr model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&usr).Error
	return &usr, err
}

type ProfileRepository struct {
	DB *gorm.DB
}

func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *ProfileRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Updates(fields).Error
}
