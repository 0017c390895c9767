package constants

// 库存流水类型
const (
	MovementTypeIn     = "IN"
	MovementTypeOut    = "OUT"
	MovementTypeReturn = "RETURN"
	MovementTypeAdjust = "ADJUST"
)

// 流水默认备注
const (
	MovementNoteSaleOut    = "销售出库"
	MovementNoteReturnIn   = "退货入库"
	MovementNoteBatchStock = "批量入库"
)

// 单据类型与编号前缀
const (
	DocTypeSale   = "sale"
	DocTypeReturn = "return"

	DocPrefixSale   = "S"
	DocPrefixReturn = "R"
)

// 单号生成策略
const (
	NumberingStrategyCounter = "counter"
	NumberingStrategyCount   = "count"
)

// 操作员角色
const (
	OperatorRoleOwner = "owner"
	OperatorRoleClerk = "clerk"
)

// 商品删除状态筛选
const (
	ProductDeletedFilterFalse = "false"
	ProductDeletedFilterTrue  = "true"
	ProductDeletedFilterAll   = "all"
)

// 报表分组维度
const (
	ReportGroupByVariant = "variant"
	ReportGroupByProduct = "product"
)

// 未分类汇总键
const (
	UncategorizedID   = "uncategorized"
	UncategorizedName = "未分类"
)

// 队列与任务
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskStockChanged      = "stock:changed"
	TaskReportDailyDigest = "report:daily_digest"
)

// 默认分类
var DefaultCategoryNames = []string{
	"上衣",
	"裤子",
	"外套",
	"连衣裙",
	"半身裙",
	"运动",
	"内衣",
	"配饰",
}

// 默认尺码
var DefaultSizeNames = []string{"S", "M", "L", "XL", "2XL"}
