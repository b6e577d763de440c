package query

// PageInfo は一覧レスポンスのページングメタデータを表す。
type PageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPageInfo はページングメタデータを計算する。
// total_pagesはceil(total / per_page)で、最低1とする。
// 総ページ数を超えるページ指定でもメタデータは矛盾なく計算される。
func NewPageInfo(page, perPage, total int) PageInfo {
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
