package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const defaultNumberingAttempts = 5

// DocumentNumberer 单号分配器：{前缀}{YYYYMMDD}-{4 位序号}，同类型同日唯一
type DocumentNumberer struct {
	strategy    string
	maxAttempts int
	location    *time.Location
	counterRepo repository.CounterRepository
	saleRepo    repository.SaleRepository
	returnRepo  repository.ReturnRepository
}

// NumberingOptions 单号分配配置
type NumberingOptions struct {
	Strategy    string
	MaxAttempts int
	Location    *time.Location
}

// NewDocumentNumberer 创建单号分配器
func NewDocumentNumberer(options NumberingOptions, counterRepo repository.CounterRepository, saleRepo repository.SaleRepository, returnRepo repository.ReturnRepository) *DocumentNumberer {
	strategy := strings.ToLower(strings.TrimSpace(options.Strategy))
	if strategy != constants.NumberingStrategyCount {
		strategy = constants.NumberingStrategyCounter
	}
	attempts := options.MaxAttempts
	if attempts <= 0 {
		attempts = defaultNumberingAttempts
	}
	loc := options.Location
	if loc == nil {
		loc = time.Local
	}
	return &DocumentNumberer{
		strategy:    strategy,
		maxAttempts: attempts,
		location:    loc,
		counterRepo: counterRepo,
		saleRepo:    saleRepo,
		returnRepo:  returnRepo,
	}
}

// Location 单号日期所用时区
func (n *DocumentNumberer) Location() *time.Location {
	return n.location
}

// FormatDocumentNo 生成单号
func FormatDocumentNo(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s%s-%04d", prefix, day.Format("20060102"), seq)
}

// DateKey 单据所属日期键
func DateKey(at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return at.In(loc).Format("20060102")
}

func docPrefix(docType string) string {
	if docType == constants.DocTypeReturn {
		return constants.DocPrefixReturn
	}
	return constants.DocPrefixSale
}

// Assign 在事务 tx 内分配单号并执行 insert；insert 在保存点中执行，
// 单号冲突时回滚保存点换号重试，其它错误直接返回
func (n *DocumentNumberer) Assign(tx *gorm.DB, docType string, at time.Time, insert func(tx *gorm.DB, docNo string) error) (string, error) {
	local := at.In(n.location)
	dateKey := local.Format("20060102")
	prefix := docPrefix(docType) + dateKey + "-"

	for attempt := 0; attempt < n.maxAttempts; attempt++ {
		seq, err := n.proposeSeq(tx, docType, dateKey, prefix, attempt)
		if err != nil {
			return "", err
		}
		docNo := FormatDocumentNo(docPrefix(docType), local, seq)

		err = tx.Transaction(func(sp *gorm.DB) error {
			if err := insert(sp, docNo); err != nil {
				if isUniqueViolation(err) {
					return ErrDocumentNoCollision
				}
				return err
			}
			return nil
		})
		if err == nil {
			return docNo, nil
		}
		if !errors.Is(err, ErrDocumentNoCollision) {
			return "", err
		}
		logger.Warnw("document_no_collision",
			"doc_type", docType,
			"doc_no", docNo,
			"attempt", attempt+1,
			"strategy", n.strategy,
		)
	}
	logger.Errorw("document_numbering_exhausted", "doc_type", docType, "date_key", dateKey, "attempts", n.maxAttempts)
	return "", ErrNumberingFailed
}

func (n *DocumentNumberer) proposeSeq(tx *gorm.DB, docType, dateKey, prefix string, attempt int) (int, error) {
	if n.strategy == constants.NumberingStrategyCounter {
		// 计数器在保存点之外递增，冲突重试时自然取到下一个号
		return n.counterRepo.WithTx(tx).NextSeq(docType, dateKey)
	}

	var (
		count int64
		err   error
	)
	if docType == constants.DocTypeReturn {
		count, err = n.returnRepo.WithTx(tx).CountByNoPrefix(prefix)
	} else {
		count, err = n.saleRepo.WithTx(tx).CountByNoPrefix(prefix)
	}
	if err != nil {
		return 0, err
	}
	return int(count) + 1 + attempt, nil
}

// isUniqueViolation 识别各驱动的唯一约束冲突
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
