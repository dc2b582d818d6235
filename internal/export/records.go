package export

import "go-inventory-ledger/internal/model"

// Column headers shared by exports, templates and uploads.
const (
	ColInternalCode  = "내부관리번호"
	ColUniqueCode    = "제품고유번호"
	ColName          = "제품명"
	ColDescription   = "설명"
	ColUnit          = "단위"
	ColUnitPrice     = "단가"
	ColMinStock      = "최소재고량"
	ColCurrentStock  = "현재재고량"
	ColTotalInbound  = "총입고량"
	ColTotalOutbound = "총출고량"
	ColLastInbound   = "최근입고일"
	ColLastOutbound  = "최근출고일"
	ColStockStatus   = "재고상태"
	ColIsLowStock    = "재고부족여부"
	ColCreatedAt     = "등록일"
	ColUpdatedAt     = "수정일"
	ColTxDate        = "거래일자"
	ColTxType        = "거래유형"
	ColQuantity      = "수량"
	ColTotalAmount   = "총액"
	ColSupplier      = "공급업체"
	ColReason        = "출고사유"
	ColRecordedAt    = "등록일시"
	ColInboundDate   = "입고일자"
	ColInboundQty    = "입고수량"
	ColOutboundDate  = "출고일자"
	ColOutboundQty   = "출고수량"
	ColShortage      = "부족수량"
)

type ProductRecord struct {
	InternalCode string  `csv:"내부관리번호"`
	UniqueCode   string  `csv:"제품고유번호"`
	Name         string  `csv:"제품명"`
	Description  string  `csv:"설명"`
	Unit         string  `csv:"단위"`
	UnitPrice    float64 `csv:"단가"`
	MinStock     int     `csv:"최소재고량"`
	CurrentStock int     `csv:"현재재고량"`
	CreatedAt    string  `csv:"등록일"`
	UpdatedAt    string  `csv:"수정일"`
}

// InventoryRecord is also the layout of the upload templates.
type InventoryRecord struct {
	InternalCode  string   `csv:"내부관리번호"`
	UniqueCode    string   `csv:"제품고유번호"`
	Name          string   `csv:"제품명"`
	Unit          string   `csv:"단위"`
	UnitPrice     *float64 `csv:"단가"`
	MinStock      *int     `csv:"최소재고량"`
	CurrentStock  *int     `csv:"현재재고량"`
	TotalInbound  *int     `csv:"총입고량"`
	TotalOutbound *int     `csv:"총출고량"`
	LastInbound   string   `csv:"최근입고일"`
	LastOutbound  string   `csv:"최근출고일"`
	StockStatus   string   `csv:"재고상태"`
	IsLowStock    string   `csv:"재고부족여부"`
	CreatedAt     string   `csv:"등록일"`
}

type TransactionRecord struct {
	TransactionDate string   `csv:"거래일자"`
	Type            string   `csv:"거래유형"`
	InternalCode    string   `csv:"내부관리번호"`
	UniqueCode      string   `csv:"제품고유번호"`
	Name            string   `csv:"제품명"`
	Quantity        int      `csv:"수량"`
	Unit            string   `csv:"단위"`
	UnitPrice       *float64 `csv:"단가"`
	TotalAmount     *float64 `csv:"총액"`
	Supplier        string   `csv:"공급업체"`
	Reason          string   `csv:"출고사유"`
	RecordedAt      string   `csv:"등록일시"`
}

type InboundRecord struct {
	TransactionDate string   `csv:"입고일자"`
	InternalCode    string   `csv:"내부관리번호"`
	UniqueCode      string   `csv:"제품고유번호"`
	Name            string   `csv:"제품명"`
	Quantity        int      `csv:"입고수량"`
	Unit            string   `csv:"단위"`
	UnitPrice       *float64 `csv:"단가"`
	TotalAmount     *float64 `csv:"총액"`
	Supplier        string   `csv:"공급업체"`
	RecordedAt      string   `csv:"등록일시"`
}

type OutboundRecord struct {
	TransactionDate string `csv:"출고일자"`
	InternalCode    string `csv:"내부관리번호"`
	UniqueCode      string `csv:"제품고유번호"`
	Name            string `csv:"제품명"`
	Quantity        int    `csv:"출고수량"`
	Unit            string `csv:"단위"`
	Reason          string `csv:"출고사유"`
	RecordedAt      string `csv:"등록일시"`
}

type LowStockRecord struct {
	InternalCode string `csv:"내부관리번호"`
	UniqueCode   string `csv:"제품고유번호"`
	Name         string `csv:"제품명"`
	Unit         string `csv:"단위"`
	MinStock     int    `csv:"최소재고량"`
	CurrentStock int    `csv:"현재재고량"`
	Shortage     int    `csv:"부족수량"`
	StockStatus  string `csv:"재고상태"`
}

// StatusText renders a stock status the way the spreadsheets show it.
func StatusText(s model.StockStatus) string {
	switch s {
	case model.StockNormal:
		return "정상"
	case model.StockLow:
		return "부족"
	case model.StockOutOfStock:
		return "재고없음"
	default:
		return "알수없음"
	}
}

func TypeText(t model.TransactionType) string {
	if t == model.TxInbound {
		return "입고"
	}
	return "출고"
}

func YesNo(b bool) string {
	if b {
		return "예"
	}
	return "아니오"
}

// Kind names one export; its Title is used for the sheet and the file name.
type Kind string

const (
	KindProducts     Kind = "products"
	KindInventory    Kind = "inventory"
	KindTransactions Kind = "transactions"
	KindInbound      Kind = "inbound"
	KindOutbound     Kind = "outbound"
	KindLowStock     Kind = "low-stock"
)

var titles = map[Kind]string{
	KindProducts:     "제품목록",
	KindInventory:    "재고현황",
	KindTransactions: "거래내역",
	KindInbound:      "입고내역",
	KindOutbound:     "출고내역",
	KindLowStock:     "재고부족제품",
}

func (k Kind) Title() string {
	if t, ok := titles[k]; ok {
		return t
	}
	return string(k)
}

// Template sheet names.
const (
	TemplateProducts = "제품등록양식"
	TemplateInbound  = "입고등록양식"
	TemplateOutbound = "출고등록양식"
)
