package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or a wrong
// password; callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AccountService manages shop owner accounts.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*Account, error)
	Authenticate(ctx context.Context, email, password string) (*Account, error)
	GetByID(ctx context.Context, accountID int) (*Account, error)
	// UpdateProfile changes the non-empty fields of in and returns the stored account.
	UpdateProfile(ctx context.Context, accountID int, in ProfileInput) (*Account, error)
}

type accountService struct {
	pool *pgxpool.Pool
}

// NewAccountService constructs an AccountService backed by PostgreSQL.
func NewAccountService(pool *pgxpool.Pool) AccountService {
	return &accountService{pool: pool}
}

const accountColumns = `id, name, email, password_hash, shop_name, phone, address, is_active, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	a := &Account{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.ShopName, &a.Phone, &a.Address, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ShopName = strings.TrimSpace(in.ShopName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	a, err := scanAccount(s.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash, shop_name, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		in.Name, in.Email, string(hash), in.ShopName, in.Phone, in.Address,
	))
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, &DuplicateKeyError{Field: "email"}
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return a, nil
}

func (s *accountService) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1 AND is_active = true
		LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

func (s *accountService) GetByID(ctx context.Context, accountID int) (*Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND is_active = true`,
		accountID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "account", Ref: "id " + strconv.Itoa(accountID)}
		}
		return nil, fmt.Errorf("failed to fetch account %d: %w", accountID, err)
	}
	return a, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID int, in ProfileInput) (*Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ShopName = strings.TrimSpace(in.ShopName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	err := validateStruct(&in)
	if in.Password != "" && in.OldPassword == "" {
		err = mergeProblems(err, "old_password is required to change password")
	}
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanAccount(tx.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND is_active = true
		FOR UPDATE`,
		accountID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "account", Ref: "id " + strconv.Itoa(accountID)}
		}
		return nil, fmt.Errorf("failed to fetch account %d: %w", accountID, err)
	}

	hash := current.PasswordHash
	if in.Password != "" {
		if bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(in.OldPassword)) != nil {
			return nil, &ValidationError{Problems: []string{"old password is incorrect"}}
		}
		b, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = string(b)
	}

	a, err := scanAccount(tx.QueryRow(ctx, `
		UPDATE accounts
		SET name = COALESCE(NULLIF($1, ''), name),
		    shop_name = COALESCE(NULLIF($2, ''), shop_name),
		    phone = COALESCE(NULLIF($3, ''), phone),
		    address = COALESCE(NULLIF($4, ''), address),
		    password_hash = $5,
		    updated_at = NOW()
		WHERE id = $6
		RETURNING `+accountColumns,
		in.Name, in.ShopName, in.Phone, in.Address, hash, accountID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update account %d: %w", accountID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit profile update: %w", err)
	}
	return a, nil
}
