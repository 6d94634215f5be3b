package entity

// Meta 包含分页元数据。
type Meta struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"page_size"`
	Total    int64 `json:"total"`
}

// BaseParams 包含通用的分页参数。
type BaseParams struct {
	PageSize int64 `json:"page_size" form:"page_size" query:"page_size"`
	Page     int64 `json:"page" form:"page" query:"page"`
}

// Offset 将页码换算成偏移量。
func (p BaseParams) Offset() int {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	size := p.PageSize
	if size <= 0 {
		size = 20
	}
	return int((page - 1) * size)
}

// Limit 返回生效的每页条数。
func (p BaseParams) Limit() int {
	if p.PageSize <= 0 {
		return 20
	}
	return int(p.PageSize)
}
