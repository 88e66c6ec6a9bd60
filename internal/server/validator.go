package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/gin-gonic/gin"
)

// requestValidator はリクエストを OpenAPI 定義と照合する
// 型と必須項目だけを検証し、値の範囲はドメイン側で検証する
type requestValidator struct {
	router routers.Router
}

func newRequestValidator(spec []byte) (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("OpenAPI定義の読み込みに失敗: %w", err)
	}

	// NewRouter は定義自体の検証も行う
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("OpenAPI定義からのルーター作成に失敗: %w", err)
	}
	return &requestValidator{router: router}, nil
}

// Validate は生成されたラッパーから呼ばれるミドルウェア
// 定義に合わないリクエストは400で打ち切る
func (v *requestValidator) Validate(c *gin.Context) {
	route, pathParams, err := v.router.FindRoute(c.Request)
	if err != nil {
		return
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    c.Request,
		PathParams: pathParams,
		Route:      route,
	}
	if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error(), requestErrorField(err))
		c.Abort()
	}
}

// requestErrorField は検証エラーの原因になった項目名を返す
func requestErrorField(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if ptr := schemaErr.JSONPointer(); len(ptr) > 0 {
			return ptr[0]
		}
	}
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Parameter != nil {
		return reqErr.Parameter.Name
	}
	return ""
}
