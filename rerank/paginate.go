package rerank

// Page 是分页结果。
type Page[T any] struct {
	Count   int `json:"count"` // 分页前的总数
	Page    int `json:"page"`
	Limit   int `json:"limit"`
	Results []T `json:"results"`
}

// Paging 是分页参数的归一化规则。
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPaging 默认每页 10 条，最多 100 条。
var DefaultPaging = Paging{DefaultLimit: 10, MaxLimit: 100}

// Normalize 归一化 page 与 limit：page 最小为 1，limit <= 0 取默认值，超过上限截断。
func (p Paging) Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = p.DefaultLimit
	}
	if limit <= 0 {
		limit = DefaultPaging.DefaultLimit
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return page, limit
}

// Paginate 截取一页；越界时返回空页（Results 非 nil）。
func Paginate[T any](all []T, page, limit int, p Paging) Page[T] {
	page, limit = p.Normalize(page, limit)
	out := Page[T]{Count: len(all), Page: page, Limit: limit, Results: []T{}}
	// 先比较页号再相乘，避免超大 page 溢出
	if page-1 >= (len(all)+limit-1)/limit {
		return out
	}
	start := (page - 1) * limit
	end := min(start+limit, len(all))
	out.Results = all[start:end]
	return out
}
