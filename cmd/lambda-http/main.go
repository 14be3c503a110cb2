// Command lambda-http serves the PitchFrame API behind API Gateway (HTTP API,
// payload v2).
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http
package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/bootstrap"
	"github.com/zii786/pitchframe/internal/shared/config"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

type proxyFunc func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

var startupFailure = events.APIGatewayV2HTTPResponse{
	StatusCode: http.StatusInternalServerError,
	Headers:    map[string]string{"Content-Type": "application/json"},
	Body:       `{"error":{"code":"internal","message":"service failed to start"}}`,
}

// lazyHandler builds the router on the first invocation and reuses it while
// the execution environment stays warm. A failed build is not retried.
func lazyHandler(build func() (*gin.Engine, error)) proxyFunc {
	var (
		once  sync.Once
		proxy *ginadapter.GinLambdaV2
		err   error
	)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		once.Do(func() {
			var router *gin.Engine
			if router, err = build(); err == nil {
				proxy = ginadapter.NewV2(router)
			}
		})
		if err != nil {
			telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": err.Error()})
			return startupFailure, nil
		}
		return proxy.ProxyWithContext(ctx, req)
	}
}

func buildRouter() (*gin.Engine, error) {
	app, err := bootstrap.Build(context.Background(), config.Load())
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

func main() {
	lambda.Start(lazyHandler(buildRouter))
}
