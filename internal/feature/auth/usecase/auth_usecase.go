// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"natours/internal/domain/entity"
	"natours/internal/platform/apperr"
)

// dummyHash はユーザーが存在しない場合にも比較時間を揃えるためのハッシュです。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーを永続化します。メールアドレスが重複する場合はErrDuplicateKeyを返します。
	Create(ctx context.Context, user *entity.User) error
	// FindByEmail は有効なユーザーをメールアドレスで取得します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByID は有効なユーザーをIDで取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	// FindByResetToken は期限内のリセットトークンハッシュを持つユーザーを取得します。
	FindByResetToken(ctx context.Context, hashed string, now time.Time) (*entity.User, error)
	SetResetToken(ctx context.Context, id uint, hashed *string, expires *time.Time) error
	UpdatePassword(ctx context.Context, id uint, hash string, changedAt time.Time) (*entity.User, error)
}

// TokenIssuer はトークン発行のインターフェースを定義します。
type TokenIssuer interface {
	Issue(userID uint) (string, error)
	IssueResetToken() (plain, hashed string, expires time.Time, err error)
}

// HashForLookup はリセットトークンの保存形式を返します。
type HashForLookup func(plain string) string

// Mailer は認証フローで送るメールを定義します。
type Mailer interface {
	SendWelcome(ctx context.Context, user *entity.User, url string) error
	SendPasswordReset(ctx context.Context, user *entity.User, url string) error
}

// SignupInput は新規登録の入力です。パスワード確認はDTOで検証済みです。
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users  UserRepository
	tokens TokenIssuer
	hash   HashForLookup
	mailer Mailer
	cost   int
	now    func() time.Time
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// costはbcryptのコストで、範囲外の値はbcrypt.DefaultCostになります。
func NewAuthUsecase(users UserRepository, tokens TokenIssuer, hash HashForLookup, mailer Mailer, cost int) *authUsecase {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &authUsecase{
		users:  users,
		tokens: tokens,
		hash:   hash,
		mailer: mailer,
		cost:   cost,
		now:    time.Now,
	}
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録し、トークンを発行します。
// ウェルカムメールの送信失敗はログに記録するだけで登録は成功します。
func (u *authUsecase) Signup(ctx context.Context, in SignupInput, accountURL string) (*entity.User, string, error) {
	hashed, err := u.hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &entity.User{
		Name:     in.Name,
		Email:    entity.NormalizeEmail(in.Email),
		Password: string(hashed),
		Role:     entity.RoleUser,
		Photo:    entity.DefaultPhoto,
		Active:   true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	if err := u.mailer.SendWelcome(ctx, user, accountURL); err != nil {
		slog.Warn("welcome email failed", "error", err, "user_id", user.ID)
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login はユーザーを認証し、成功時にトークンを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.New(apperr.ErrBadRequest, MsgMissingCredentials)
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, "", err
	}

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

	if err != nil || compareErr != nil {
		return nil, "", apperr.New(apperr.ErrInvalidCredentials, MsgBadCredentials)
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ForgotPassword はリセットトークンを発行してメールで送ります。
// resetURL は平文トークンからリセット用URLを組み立てます。
// 送信に失敗した場合は保存したトークンを消去します。
func (u *authUsecase) ForgotPassword(ctx context.Context, email string, resetURL func(plain string) string) error {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, MsgNoUserWithEmail, err)
		}
		return err
	}

	plain, hashed, expires, err := u.tokens.IssueResetToken()
	if err != nil {
		return err
	}
	if err := u.users.SetResetToken(ctx, user.ID, &hashed, &expires); err != nil {
		return err
	}

	if err := u.mailer.SendPasswordReset(ctx, user, resetURL(plain)); err != nil {
		if clearErr := u.users.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			slog.Error("failed to clear reset token", "error", clearErr, "user_id", user.ID)
		}
		return apperr.Wrap(apperr.ErrTransport, MsgEmailFailed, err)
	}
	return nil
}

// ResetPassword は有効なリセットトークンのユーザーに新しいパスワードを設定し、ログインさせます。
func (u *authUsecase) ResetPassword(ctx context.Context, plain, password string) (*entity.User, string, error) {
	user, err := u.users.FindByResetToken(ctx, u.hash(plain), u.now())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", apperr.Wrap(apperr.ErrBadRequest, MsgResetTokenInvalid, err)
		}
		return nil, "", err
	}
	return u.setPassword(ctx, user.ID, password)
}

// UpdatePassword は現在のパスワードを確認してから新しいパスワードを設定します。
func (u *authUsecase) UpdatePassword(ctx context.Context, userID uint, current, password string) (*entity.User, string, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return nil, "", apperr.New(apperr.ErrInvalidCredentials, MsgWrongPassword)
	}
	return u.setPassword(ctx, user.ID, password)
}

// setPassword は変更時刻を1秒前に設定し、同じリクエストで発行するトークンを有効に保ちます。
func (u *authUsecase) setPassword(ctx context.Context, id uint, password string) (*entity.User, string, error) {
	hashed, err := u.hashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user, err := u.users.UpdatePassword(ctx, id, string(hashed), u.now().Add(-time.Second))
	if err != nil {
		return nil, "", err
	}
	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// hashPassword はbcryptでハッシュ化します。72バイトを超えるパスワードは入力エラーです。
func (u *authUsecase) hashPassword(password string) ([]byte, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.Wrap(apperr.ErrValidation, MsgPasswordTooLong, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hashed, nil
}
