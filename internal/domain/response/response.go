// Package response holds the envelopes returned by the services.
package response

const StatusSuccess = "success"

type ApiResponse[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type ApiResponsePagination[T any] struct {
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	Data       T          `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

func Success[T any](message string, data T) *ApiResponse[T] {
	return &ApiResponse[T]{Status: StatusSuccess, Message: message, Data: data}
}

func Paginated[T any](message string, data T, page, pageSize int, total int64) *ApiResponsePagination[T] {
	return &ApiResponsePagination[T]{
		Status:     StatusSuccess,
		Message:    message,
		Data:       data,
		Pagination: NewPagination(page, pageSize, total),
	}
}

func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total / int64(pageSize))
		if total%int64(pageSize) > 0 {
			totalPages++
		}
	}
	return Pagination{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: totalPages}
}
