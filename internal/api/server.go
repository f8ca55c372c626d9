package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// ヘルスチェック
	// (GET /health)
	HealthCheck(c *gin.Context)
	// システム状態の取得
	// (GET /api/status)
	GetStatus(c *gin.Context)
	// 映像入力デバイスの列挙
	// (GET /api/cameras)
	GetCameras(c *gin.Context)
	// セッション状態の取得
	// (GET /api/session)
	GetSession(c *gin.Context)
	// カメラの起動
	// (POST /api/session)
	StartSession(c *gin.Context)
	// カメラの停止
	// (DELETE /api/session)
	StopSession(c *gin.Context)
	// ライブプレビュー（MJPEG）
	// (GET /api/session/preview)
	GetPreview(c *gin.Context, params GetPreviewParams)
	// 写真の撮影
	// (POST /api/photos)
	TakePhoto(c *gin.Context)
	// 録画の開始
	// (POST /api/recording)
	StartRecording(c *gin.Context)
	// 録画の停止
	// (DELETE /api/recording)
	StopRecording(c *gin.Context)
	// ギャラリー一覧（新しい順）
	// (GET /api/gallery)
	GetGallery(c *gin.Context)
	// 項目の削除
	// (DELETE /api/gallery/{itemId})
	DeleteGalleryItem(c *gin.Context, itemId ItemId)
	// 成果物の取得
	// (GET /api/gallery/{itemId})
	GetGalleryItem(c *gin.Context, itemId ItemId, params GetGalleryItemParams)
	// 通知イベント（Server-Sent Events）
	// (GET /api/events)
	GetEvents(c *gin.Context)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandler       func(*gin.Context, error, int)
}

type MiddlewareFunc func(c *gin.Context)

func (siw *ServerInterfaceWrapper) run(c *gin.Context, handler func(c *gin.Context)) {
	for _, middleware := range siw.HandlerMiddlewares {
		middleware(c)
		if c.IsAborted() {
			return
		}
	}
	handler(c)
}

// HealthCheck operation middleware
func (siw *ServerInterfaceWrapper) HealthCheck(c *gin.Context) {
	siw.run(c, siw.Handler.HealthCheck)
}

// GetStatus operation middleware
func (siw *ServerInterfaceWrapper) GetStatus(c *gin.Context) {
	siw.run(c, siw.Handler.GetStatus)
}

// GetCameras operation middleware
func (siw *ServerInterfaceWrapper) GetCameras(c *gin.Context) {
	siw.run(c, siw.Handler.GetCameras)
}

// GetSession operation middleware
func (siw *ServerInterfaceWrapper) GetSession(c *gin.Context) {
	siw.run(c, siw.Handler.GetSession)
}

// StartSession operation middleware
func (siw *ServerInterfaceWrapper) StartSession(c *gin.Context) {
	siw.run(c, siw.Handler.StartSession)
}

// StopSession operation middleware
func (siw *ServerInterfaceWrapper) StopSession(c *gin.Context) {
	siw.run(c, siw.Handler.StopSession)
}

// GetPreview operation middleware
func (siw *ServerInterfaceWrapper) GetPreview(c *gin.Context) {
	var err error

	// Parameter object where we will unmarshal all parameters from the context
	var params GetPreviewParams

	// ------------- Optional query parameter "stream" -------------

	err = runtime.BindQueryParameter("form", true, false, "stream", c.Request.URL.Query(), &params.Stream)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter stream: %w", err), http.StatusBadRequest)
		return
	}

	siw.run(c, func(c *gin.Context) {
		siw.Handler.GetPreview(c, params)
	})
}

// TakePhoto operation middleware
func (siw *ServerInterfaceWrapper) TakePhoto(c *gin.Context) {
	siw.run(c, siw.Handler.TakePhoto)
}

// StartRecording operation middleware
func (siw *ServerInterfaceWrapper) StartRecording(c *gin.Context) {
	siw.run(c, siw.Handler.StartRecording)
}

// StopRecording operation middleware
func (siw *ServerInterfaceWrapper) StopRecording(c *gin.Context) {
	siw.run(c, siw.Handler.StopRecording)
}

// GetGallery operation middleware
func (siw *ServerInterfaceWrapper) GetGallery(c *gin.Context) {
	siw.run(c, siw.Handler.GetGallery)
}

// DeleteGalleryItem operation middleware
func (siw *ServerInterfaceWrapper) DeleteGalleryItem(c *gin.Context) {
	var err error

	// ------------- Path parameter "itemId" -------------
	var itemId ItemId

	err = runtime.BindStyledParameterWithOptions("simple", "itemId", c.Param("itemId"), &itemId, runtime.BindStyledParameterOptions{Explode: false, Required: true, ParamLocation: runtime.ParamLocationPath})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter itemId: %w", err), http.StatusBadRequest)
		return
	}

	siw.run(c, func(c *gin.Context) {
		siw.Handler.DeleteGalleryItem(c, itemId)
	})
}

// GetGalleryItem operation middleware
func (siw *ServerInterfaceWrapper) GetGalleryItem(c *gin.Context) {
	var err error

	// ------------- Path parameter "itemId" -------------
	var itemId ItemId

	err = runtime.BindStyledParameterWithOptions("simple", "itemId", c.Param("itemId"), &itemId, runtime.BindStyledParameterOptions{Explode: false, Required: true, ParamLocation: runtime.ParamLocationPath})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter itemId: %w", err), http.StatusBadRequest)
		return
	}

	// Parameter object where we will unmarshal all parameters from the context
	var params GetGalleryItemParams

	// ------------- Optional query parameter "download" -------------

	err = runtime.BindQueryParameter("form", true, false, "download", c.Request.URL.Query(), &params.Download)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter download: %w", err), http.StatusBadRequest)
		return
	}

	siw.run(c, func(c *gin.Context) {
		siw.Handler.GetGalleryItem(c, itemId, params)
	})
}

// GetEvents operation middleware
func (siw *ServerInterfaceWrapper) GetEvents(c *gin.Context) {
	siw.run(c, siw.Handler.GetEvents)
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	BaseURL      string
	Middlewares  []MiddlewareFunc
	ErrorHandler func(*gin.Context, error, int)
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, GinServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			c.JSON(statusCode, gin.H{"msg": err.Error()})
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandler:       errorHandler,
	}

	router.GET(options.BaseURL+"/health", wrapper.HealthCheck)
	router.GET(options.BaseURL+"/api/status", wrapper.GetStatus)
	router.GET(options.BaseURL+"/api/cameras", wrapper.GetCameras)
	router.GET(options.BaseURL+"/api/session", wrapper.GetSession)
	router.POST(options.BaseURL+"/api/session", wrapper.StartSession)
	router.DELETE(options.BaseURL+"/api/session", wrapper.StopSession)
	router.GET(options.BaseURL+"/api/session/preview", wrapper.GetPreview)
	router.POST(options.BaseURL+"/api/photos", wrapper.TakePhoto)
	router.POST(options.BaseURL+"/api/recording", wrapper.StartRecording)
	router.DELETE(options.BaseURL+"/api/recording", wrapper.StopRecording)
	router.GET(options.BaseURL+"/api/gallery", wrapper.GetGallery)
	router.DELETE(options.BaseURL+"/api/gallery/:itemId", wrapper.DeleteGalleryItem)
	router.GET(options.BaseURL+"/api/gallery/:itemId", wrapper.GetGalleryItem)
	router.GET(options.BaseURL+"/api/events", wrapper.GetEvents)
}
