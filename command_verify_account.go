package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VerifyAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(r *VerifyAccountResponse)
}

func (e VerifyAccountMessage) Type() string { return "user.verify" }

type VerifyAccountResponse struct {
	User   *User `json:"user,omitempty"`
	Pruned int   `json:"pruned"`
}

// VerifyAccountHandler exchanges a verification token for account activation.
// Activation and duplicate pruning run in one transaction: the last verifier
// wins, and every other unverified record sharing the email or username goes
// away with it.
type VerifyAccountHandler struct {
	repo   RepositoryManager
	tokens *VerificationTokenService
	logger Logger
}

func NewVerifyAccountHandler(repo RepositoryManager, tokens *VerificationTokenService) *VerifyAccountHandler {
	return &VerifyAccountHandler{repo: repo, tokens: tokens, logger: defLogger{}}
}

func (h *VerifyAccountHandler) WithLogger(logger Logger) *VerifyAccountHandler {
	h.logger = logger
	return h
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	subject, err := h.tokens.Decode(event.Token)
	if err != nil {
		var expired *VerificationExpiredError
		if goerrors.As(err, &expired) {
			h.logger.Info("verification token expired, issued at %s", expired.IssuedAt)
			return goerrors.New("could not verify, token expired", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode(TextCodeVerificationExpired)
		}
		return err
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return ErrTokenInvalid
	}

	resp := &VerifyAccountResponse{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().MarkVerifiedTx(ctx, tx, id)
		if err != nil {
			if goerrors.IsNotFound(err) {
				// The record can be gone if a duplicate verified first.
				return ErrTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
		}

		pruned, err := h.repo.Users().DeleteUnverifiedDuplicatesTx(ctx, tx, user.Email, user.Username, user.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to prune duplicate registrations")
		}

		resp.User = user
		resp.Pruned = pruned
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account verification transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
