package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(u *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates an unverified account and dispatches the
// verification email. The verified-uniqueness precheck and the insert are not
// atomic across concurrent registrations; a race can leave two unverified
// duplicates behind, which verification resolves by pruning.
type RegisterUserHandler struct {
	repo   RepositoryManager
	tokens *VerificationTokenService
	mailer Mailer
}

func NewRegisterUserHandler(repo RepositoryManager, tokens *VerificationTokenService, mailer Mailer) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, tokens: tokens, mailer: mailer}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	username := getUsername(event.Username, event.Email)

	if err := h.checkIdentityIsFree(ctx, username, event.Email); err != nil {
		return err
	}

	user := &User{
		Username: username,
		Email:    event.Email,
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		salt, err := GenerateSalt()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate salt")
		}

		hash, err := HashPassword(salt + event.Password)
		if err != nil {
			if goerrors.Is(err, ErrNoEmptyString) {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Salt = salt
		user.HashedPassword = hash

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		token, err := h.tokens.Issue(user.ID.String())
		if err != nil {
			return err
		}

		// Delivery failure rolls the insert back: registration fails
		// visibly rather than leaving a record nobody can activate.
		if err := h.mailer.SendVerification(ctx, user.Username, user.Email, token); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification email")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

// checkIdentityIsFree rejects identities already held by a verified account.
// Unverified holders do not block registration.
func (h *RegisterUserHandler) checkIdentityIsFree(ctx context.Context, username, email string) error {
	if user, err := h.repo.Users().GetByUsername(ctx, username); err == nil && user.IsVerified {
		return goerrors.New("username is already taken", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithTextCode(TextCodeIdentityTaken)
	} else if err != nil && !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
	}

	if user, err := h.repo.Users().GetByEmail(ctx, email); err == nil && user.IsVerified {
		return goerrors.New("user with this email already exists", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithTextCode(TextCodeIdentityTaken)
	} else if err != nil && !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
