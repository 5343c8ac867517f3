// Package usecase はusersフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/crud"
)

// UserRepository はユーザー管理に必要な永続化操作です。
type UserRepository interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.User, error)
	Get(ctx context.Context, id uint) (*entity.User, error)
	Update(ctx context.Context, id uint, fields map[string]any) (*entity.User, error)
	Delete(ctx context.Context, id uint) error
	Deactivate(ctx context.Context, id uint) error
}

// ProfileInput は本人が変更できるプロフィール項目です。nilの項目は変更しません。
type ProfileInput struct {
	Name  *string
	Email *string
}

// AdminInput は管理者が変更できる項目です。パスワードは含みません。
type AdminInput struct {
	Name  *string
	Email *string
	Photo *string
	Role  *entity.Role
}

type userUsecase struct {
	users UserRepository
}

// NewUserUsecase はuserUsecaseの新しいインスタンスを生成します。
func NewUserUsecase(users UserRepository) *userUsecase {
	return &userUsecase{users: users}
}

// List は有効なユーザーを一覧します。
func (u *userUsecase) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.User, error) {
	return u.users.List(ctx, d, filters...)
}

// Get はIDでユーザーを取得します。
func (u *userUsecase) Get(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.Get(ctx, id)
}

// UpdateMe は本人のプロフィールを更新します。
func (u *userUsecase) UpdateMe(ctx context.Context, id uint, in ProfileInput) (*entity.User, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Email != nil {
		fields["email"] = entity.NormalizeEmail(*in.Email)
	}
	return u.update(ctx, id, fields)
}

// Update は管理者によるユーザー更新です。
func (u *userUsecase) Update(ctx context.Context, id uint, in AdminInput) (*entity.User, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Email != nil {
		fields["email"] = entity.NormalizeEmail(*in.Email)
	}
	if in.Photo != nil {
		fields["photo"] = *in.Photo
	}
	if in.Role != nil {
		fields["role"] = *in.Role
	}
	return u.update(ctx, id, fields)
}

func (u *userUsecase) update(ctx context.Context, id uint, fields map[string]any) (*entity.User, error) {
	if len(fields) == 0 {
		return u.users.Get(ctx, id)
	}
	return u.users.Update(ctx, id, fields)
}

// DeleteMe は本人のアカウントを退会済みにします。
func (u *userUsecase) DeleteMe(ctx context.Context, id uint) error {
	return u.users.Deactivate(ctx, id)
}

// Delete はユーザーを削除します。
func (u *userUsecase) Delete(ctx context.Context, id uint) error {
	return u.users.Delete(ctx, id)
}
