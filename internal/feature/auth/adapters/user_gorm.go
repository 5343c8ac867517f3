// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
)

// UserColumns はクエリ文字列で指定できるユーザーのフィールドと列の対応です。
var UserColumns = apifeatures.Columns{
	"id":       "id",
	"name":     "name",
	"email":    "email",
	"photo":    "photo",
	"role":     "role",
	"revision": "revision",
}

// activeOnly は退会済みユーザーを全ての検索から除外します。
func activeOnly(tx *gorm.DB) *gorm.DB {
	return tx.Where("active = ?", true)
}

// userGorm はUserRepositoryインターフェースのGORM実装です。
type userGorm struct {
	*crud.Repository[entity.User]
}

// NewUserRepository は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{
		Repository: crud.NewRepository[entity.User](db, UserColumns,
			crud.WithScope(activeOnly),
		),
	}
}

// FindByEmail はメールアドレスで有効なユーザーを取得します。
// ユーザーが存在しない場合、apperr.ErrNotFoundに一致するエラーを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.FindOne(ctx, "email = ?", entity.NormalizeEmail(email))
}

// FindByID はIDで有効なユーザーを取得します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.Get(ctx, id)
}

// FindByResetToken は期限内のリセットトークンハッシュを持つユーザーを取得します。
func (r *userGorm) FindByResetToken(ctx context.Context, hashed string, now time.Time) (*entity.User, error) {
	return r.FindOne(ctx, "password_reset_token = ? AND password_reset_expires > ?", hashed, now)
}

// SetResetToken はリセットトークンのハッシュと有効期限を保存します。nilを渡すと消去します。
func (r *userGorm) SetResetToken(ctx context.Context, id uint, hashed *string, expires *time.Time) error {
	_, err := r.Update(ctx, id, map[string]any{
		"password_reset_token":   hashed,
		"password_reset_expires": expires,
	})
	return err
}

// UpdatePassword はパスワードハッシュと変更時刻を保存し、リセットトークンを消去します。
func (r *userGorm) UpdatePassword(ctx context.Context, id uint, hash string, changedAt time.Time) (*entity.User, error) {
	return r.Update(ctx, id, map[string]any{
		"password":               hash,
		"password_changed_at":    changedAt,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
}

// Deactivate はユーザーを退会済みにします。以降の検索には現れません。
func (r *userGorm) Deactivate(ctx context.Context, id uint) error {
	res := r.Query(ctx).Where("id = ?", id).Updates(map[string]any{
		"active":   false,
		"revision": gorm.Expr("revision + ?", 1),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrNotFound, crud.MsgNotFound)
	}
	return nil
}
