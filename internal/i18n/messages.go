package i18n

var catalog = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":               "请求参数错误",
		"error.unauthorized":              "未登录或登录已过期",
		"error.forbidden":                 "无权访问",
		"error.not_found":                 "记录不存在",
		"error.internal":                  "服务器内部错误",
		"error.too_many_requests":         "请求过于频繁，请稍后再试",
		"error.token_invalid":             "无效的登录凭证",
		"error.token_revoked":             "登录凭证已失效，请重新登录",
		"error.login_failed":              "用户名或密码错误",
		"error.operator_disabled":         "账号已停用",
		"error.operator_not_found":        "账号不存在",
		"error.operator_invalid":          "账号不能为空",
		"error.operator_exists":           "账号已存在",
		"error.role_invalid":              "角色无效",
		"error.role_protected":            "店主内置权限不可撤销",
		"error.password_mismatch":         "原密码错误",
		"error.password_weak":             "密码强度不足",
		"error.password_min_length":       "密码长度不能少于 %d 位",
		"error.password_require_letter":   "密码必须包含字母",
		"error.password_require_number":   "密码必须包含数字",
		"error.date_range_invalid":        "日期范围无效",
		"error.items_empty":               "明细不能为空",
		"error.variant_missing":           "明细缺少变体",
		"error.qty_invalid":               "数量无效",
		"error.price_invalid":             "价格无效",
		"error.movement_type_invalid":     "流水类型无效",
		"error.adjust_forbidden":          "仅店主可以调整库存",
		"error.stock_insufficient":        "库存不足",
		"error.stock_shortage":            "%s 库存不足（可用 %d，需要 %d）",
		"error.over_return":               "退货数量超过可退数量",
		"error.over_return_detail":        "%s 可退 %d，本次退 %d",
		"error.sale_not_found":            "销售单不存在",
		"error.sale_has_returns":          "销售单已有退货，不能删除",
		"error.return_not_found":          "退货单不存在",
		"error.variant_not_found":         "变体不存在",
		"error.numbering_failed":          "单号生成失败，请重试",
		"error.product_not_found":         "款式不存在",
		"error.product_invalid":           "款式名称和款号不能为空",
		"error.product_base_code_exists":  "款号已存在",
		"error.product_variants_required": "至少需要一个有效变体",
		"error.category_not_found":        "分类不存在",
		"error.category_invalid":          "分类名称不能为空",
		"error.category_exists":           "分类已存在",
		"error.size_not_found":            "尺码不存在",
		"error.size_invalid":              "尺码名称不能为空",
		"error.size_exists":               "尺码已存在",
		"error.group_by_invalid":          "分组维度无效",
		"error.rate_limited":              "请求过于频繁，请 %d 秒后再试",
		"error.login_too_many":            "登录尝试过于频繁，请 %d 秒后再试",
		"error.jwt_secret_missing":        "服务端未配置登录密钥",
		"error.auth_header_missing":       "缺少 Authorization 请求头",
		"error.auth_header_invalid":       "Authorization 格式错误",
	},
	LocaleEnUS: {
		"error.bad_request":               "Invalid request parameters",
		"error.unauthorized":              "Not logged in or session expired",
		"error.forbidden":                 "Access denied",
		"error.not_found":                 "Record not found",
		"error.internal":                  "Internal server error",
		"error.too_many_requests":         "Too many requests, please try again later",
		"error.token_invalid":             "Invalid token",
		"error.token_revoked":             "Token revoked, please log in again",
		"error.login_failed":              "Invalid username or password",
		"error.operator_disabled":         "Account disabled",
		"error.operator_not_found":        "Account not found",
		"error.operator_invalid":          "Username is required",
		"error.operator_exists":           "Account already exists",
		"error.role_invalid":              "Invalid role",
		"error.role_protected":            "Builtin owner permissions cannot be revoked",
		"error.password_mismatch":         "Current password is incorrect",
		"error.password_weak":             "Password is too weak",
		"error.password_min_length":       "Password must be at least %d characters",
		"error.password_require_letter":   "Password must contain a letter",
		"error.password_require_number":   "Password must contain a number",
		"error.date_range_invalid":        "Invalid date range",
		"error.items_empty":               "Items are required",
		"error.variant_missing":           "Item is missing a variant",
		"error.qty_invalid":               "Invalid quantity",
		"error.price_invalid":             "Invalid price",
		"error.movement_type_invalid":     "Invalid movement type",
		"error.adjust_forbidden":          "Only the owner can adjust stock",
		"error.stock_insufficient":        "Insufficient stock",
		"error.stock_shortage":            "%s is short (available %d, requested %d)",
		"error.over_return":               "Return quantity exceeds returnable quantity",
		"error.over_return_detail":        "%s returnable %d, requested %d",
		"error.sale_not_found":            "Sale not found",
		"error.sale_has_returns":          "Sale has returns and cannot be deleted",
		"error.return_not_found":          "Return not found",
		"error.variant_not_found":         "Variant not found",
		"error.numbering_failed":          "Failed to allocate document number, please retry",
		"error.product_not_found":         "Product not found",
		"error.product_invalid":           "Product name and base code are required",
		"error.product_base_code_exists":  "Base code already exists",
		"error.product_variants_required": "At least one valid variant is required",
		"error.category_not_found":        "Category not found",
		"error.category_invalid":          "Category name is required",
		"error.category_exists":           "Category already exists",
		"error.size_not_found":            "Size not found",
		"error.size_invalid":              "Size name is required",
		"error.size_exists":               "Size already exists",
		"error.group_by_invalid":          "Invalid group by",
		"error.rate_limited":              "Too many requests, retry in %d seconds",
		"error.login_too_many":            "Too many login attempts, retry in %d seconds",
		"error.jwt_secret_missing":        "Login secret is not configured",
		"error.auth_header_missing":       "Missing Authorization header",
		"error.auth_header_invalid":       "Malformed Authorization header",
	},
}
