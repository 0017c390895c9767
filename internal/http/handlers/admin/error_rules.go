package admin

import (
	"errors"

	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedHandlerError

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, fallbackCode, fallbackKey)
}

var documentItemErrorRules = []mappedHandlerError{
	{Target: service.ErrEmptyItems, Code: response.CodeBadRequest, Key: "error.items_empty"},
	{Target: service.ErrMissingVariant, Code: response.CodeBadRequest, Key: "error.variant_missing"},
	{Target: service.ErrInvalidQty, Code: response.CodeBadRequest, Key: "error.qty_invalid"},
	{Target: service.ErrInvalidPrice, Code: response.CodeBadRequest, Key: "error.price_invalid"},
	{Target: service.ErrVariantNotFound, Code: response.CodeNotFound, Key: "error.variant_not_found"},
	{Target: service.ErrNumberingFailed, Code: response.CodeConflict, Key: "error.numbering_failed"},
}

var saleErrorRules = handlershared.ConcatMappedHandlerErrors(documentItemErrorRules, []mappedHandlerError{
	{Target: service.ErrInsufficientStock, Code: response.CodeConflict, Key: "error.stock_insufficient"},
	{Target: service.ErrSaleNotFound, Code: response.CodeNotFound, Key: "error.sale_not_found"},
	{Target: service.ErrSaleHasReturns, Code: response.CodeConflict, Key: "error.sale_has_returns"},
})

var returnErrorRules = handlershared.ConcatMappedHandlerErrors(documentItemErrorRules, []mappedHandlerError{
	{Target: service.ErrOverReturn, Code: response.CodeConflict, Key: "error.over_return"},
	{Target: service.ErrSaleNotFound, Code: response.CodeNotFound, Key: "error.sale_not_found"},
	{Target: service.ErrReturnNotFound, Code: response.CodeNotFound, Key: "error.return_not_found"},
})

var stockErrorRules = []mappedHandlerError{
	{Target: service.ErrEmptyItems, Code: response.CodeBadRequest, Key: "error.items_empty"},
	{Target: service.ErrMissingVariant, Code: response.CodeBadRequest, Key: "error.variant_missing"},
	{Target: service.ErrInvalidQty, Code: response.CodeBadRequest, Key: "error.qty_invalid"},
	{Target: service.ErrInvalidPrice, Code: response.CodeBadRequest, Key: "error.price_invalid"},
	{Target: service.ErrInvalidMovementType, Code: response.CodeBadRequest, Key: "error.movement_type_invalid"},
	{Target: service.ErrVariantNotFound, Code: response.CodeNotFound, Key: "error.variant_not_found"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
}

var productErrorRules = []mappedHandlerError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductInvalid, Code: response.CodeBadRequest, Key: "error.product_invalid"},
	{Target: service.ErrProductBaseCodeExists, Code: response.CodeConflict, Key: "error.product_base_code_exists"},
	{Target: service.ErrProductVariantsRequired, Code: response.CodeBadRequest, Key: "error.product_variants_required"},
	{Target: service.ErrInvalidQty, Code: response.CodeBadRequest, Key: "error.qty_invalid"},
	{Target: service.ErrInvalidPrice, Code: response.CodeBadRequest, Key: "error.price_invalid"},
	{Target: service.ErrCategoryNotFound, Code: response.CodeBadRequest, Key: "error.category_not_found"},
	{Target: service.ErrInvalidDateRange, Code: response.CodeBadRequest, Key: "error.date_range_invalid"},
}

var categoryErrorRules = []mappedHandlerError{
	{Target: service.ErrCategoryNotFound, Code: response.CodeNotFound, Key: "error.category_not_found"},
	{Target: service.ErrCategoryInvalid, Code: response.CodeBadRequest, Key: "error.category_invalid"},
	{Target: service.ErrCategoryExists, Code: response.CodeConflict, Key: "error.category_exists"},
}

var sizeErrorRules = []mappedHandlerError{
	{Target: service.ErrSizeNotFound, Code: response.CodeNotFound, Key: "error.size_not_found"},
	{Target: service.ErrSizeInvalid, Code: response.CodeBadRequest, Key: "error.size_invalid"},
	{Target: service.ErrSizeExists, Code: response.CodeConflict, Key: "error.size_exists"},
}

var reportErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidDateRange, Code: response.CodeBadRequest, Key: "error.date_range_invalid"},
}

var operatorErrorRules = []mappedHandlerError{
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.operator_not_found"},
	{Target: service.ErrOperatorInvalid, Code: response.CodeBadRequest, Key: "error.operator_invalid"},
	{Target: service.ErrOperatorExists, Code: response.CodeConflict, Key: "error.operator_exists"},
	{Target: service.ErrInvalidRole, Code: response.CodeBadRequest, Key: "error.role_invalid"},
	{Target: service.ErrPasswordMismatch, Code: response.CodeBadRequest, Key: "error.password_mismatch"},
}

// respondDocumentError 库存短缺、超退返回带 SKU 的明细文案，其余按规则映射
func respondDocumentError(c *gin.Context, err error, rules []mappedHandlerError, fallbackKey string) {
	var shortage *service.StockShortageError
	if errors.As(err, &shortage) {
		handlershared.RespondLocalizedError(c, response.CodeConflict, "error.stock_shortage", shortage.SKU, shortage.Available, shortage.Requested)
		return
	}
	var over *service.OverReturnError
	if errors.As(err, &over) {
		handlershared.RespondLocalizedError(c, response.CodeConflict, "error.over_return_detail", over.SKU, over.Returnable, over.Requested)
		return
	}
	respondWithMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}

// respondPasswordPolicyError 密码策略错误按策略项返回文案
func respondPasswordPolicyError(c *gin.Context, err error) bool {
	if !errors.Is(err, service.ErrWeakPassword) {
		return false
	}
	var perr interface {
		Key() string
		Args() []interface{}
	}
	if errors.As(err, &perr) {
		handlershared.RespondLocalizedError(c, response.CodeBadRequest, perr.Key(), perr.Args()...)
		return true
	}
	respondError(c, response.CodeBadRequest, "error.password_weak", nil)
	return true
}
