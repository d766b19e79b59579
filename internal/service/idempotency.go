package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyClaim 幂等键占用结果
type IdempotencyClaim struct {
	FirstSeen bool
	Record    *models.IdempotencyRecord
}

// IdempotencyGuard 幂等守卫，一个幂等键只对应一个结果
type IdempotencyGuard struct {
	repo repository.IdempotencyRepository
}

// NewIdempotencyGuard 创建幂等守卫
func NewIdempotencyGuard(repo repository.IdempotencyRepository) *IdempotencyGuard {
	return &IdempotencyGuard{repo: repo}
}

// NormalizeIdempotencyKey 校验并规范化幂等键
func NormalizeIdempotencyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrIdempotencyKeyRequired
	}
	if len(key) > constants.IdempotencyKeyMaxLength {
		return "", ErrIdempotencyKeyTooLong
	}
	return key, nil
}

// RequestHash 计算请求摘要（规范 JSON 的 SHA-256）
func RequestHash(request interface{}) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Claim 在事务内占用幂等键，必须是事务的第一条语句
func (g *IdempotencyGuard) Claim(tx *gorm.DB, scope, key, requestHash string) (*IdempotencyClaim, error) {
	repo := g.repo.WithTx(tx)
	record := &models.IdempotencyRecord{
		ID:             uuid.NewString(),
		IdempotencyKey: key,
		Scope:          scope,
		RequestHash:    requestHash,
		CreatedAt:      time.Now().UTC(),
	}
	claimed, err := repo.Claim(record)
	if err != nil {
		return nil, err
	}
	if claimed {
		return &IdempotencyClaim{FirstSeen: true, Record: record}, nil
	}

	existing, err := repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrIdempotencyReplayBroken
	}
	if existing.Scope != scope || existing.RequestHash != requestHash {
		return nil, ErrIdempotencyKeyReused
	}
	return &IdempotencyClaim{FirstSeen: false, Record: existing}, nil
}

// Complete 在提交前写入首次执行结果
func (g *IdempotencyGuard) Complete(tx *gorm.DB, claim *IdempotencyClaim, result interface{}) error {
	if claim == nil || claim.Record == nil {
		return ErrIdempotencyReplayBroken
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := g.repo.WithTx(tx).SaveResponse(claim.Record.ID, string(payload)); err != nil {
		return err
	}
	claim.Record.ResponseJSON = string(payload)
	return nil
}

// Replay 解码已记录的结果
func Replay[T any](claim *IdempotencyClaim) (T, error) {
	var out T
	if claim == nil || claim.Record == nil || strings.TrimSpace(claim.Record.ResponseJSON) == "" {
		return out, ErrIdempotencyReplayBroken
	}
	if err := json.Unmarshal([]byte(claim.Record.ResponseJSON), &out); err != nil {
		return out, err
	}
	return out, nil
}

// runIdempotent 在单个事务内执行幂等写操作，返回结果与是否为重放
func runIdempotent[T any](
	ctx context.Context,
	runner repository.TransactionRunner,
	guard *IdempotencyGuard,
	scope string,
	key string,
	request interface{},
	apply func(tx *gorm.DB) (T, error),
) (T, bool, error) {
	var zero T
	normalizedKey, err := NormalizeIdempotencyKey(key)
	if err != nil {
		return zero, false, err
	}
	requestHash, err := RequestHash(request)
	if err != nil {
		return zero, false, err
	}

	var (
		result T
		replay bool
	)
	err = runner.Transaction(ctx, func(tx *gorm.DB) error {
		claim, err := guard.Claim(tx, scope, normalizedKey, requestHash)
		if err != nil {
			return err
		}
		if !claim.FirstSeen {
			prior, err := Replay[T](claim)
			if err != nil {
				return err
			}
			result = prior
			replay = true
			return nil
		}
		applied, err := apply(tx)
		if err != nil {
			return err
		}
		if err := guard.Complete(tx, claim, applied); err != nil {
			return err
		}
		result = applied
		return nil
	})
	if err != nil {
		return zero, false, translateStoreError(err)
	}
	return result, replay, nil
}
