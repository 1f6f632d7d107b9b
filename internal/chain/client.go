package chain

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"dexsync/internal/model"
)

// defaultPageSize matches the fullnode's cap on sui_multiGetObjects.
const defaultPageSize = 50

// Config holds the connection settings for one fullnode endpoint.
type Config struct {
	Endpoint  string
	PageSize  int
	PageDelay time.Duration
}

// Client wraps a JSON-RPC connection to a Sui fullnode and provides object
// fetch helpers.
type Client struct {
	rpcClient *rpc.Client
	pageSize  int
	pageDelay time.Duration
	healthy   atomic.Bool
	logger    *zap.Logger
}

// NewClient dials the fullnode endpoint.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rpcClient, err := rpc.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Endpoint, err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	c := &Client{
		rpcClient: rpcClient,
		pageSize:  pageSize,
		pageDelay: cfg.PageDelay,
		logger:    logger,
	}
	c.healthy.Store(true)
	return c, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Healthy reports whether the last RPC exchange succeeded.
func (c *Client) Healthy() bool {
	return c.healthy.Load()
}

// objectOptions selects the response detail level. Type and content are
// both needed for parsing.
type objectOptions struct {
	ShowType    bool `json:"showType"`
	ShowContent bool `json:"showContent"`
}

// objectError is the per-object error the fullnode embeds in an otherwise
// successful response, for example for deleted or unknown ids.
type objectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id"`
}

type objectResponse struct {
	Data  *model.ObjectData `json:"data"`
	Error *objectError      `json:"error"`
}

// FetchObject retrieves one object with type and content.
func (c *Client) FetchObject(ctx context.Context, objectID string) (model.ObjectData, error) {
	var resp objectResponse
	err := c.rpcClient.CallContext(ctx, &resp, "sui_getObject", objectID, objectOptions{ShowType: true, ShowContent: true})
	if err != nil {
		c.healthy.Store(false)
		return model.ObjectData{}, fmt.Errorf("get object %s: %w", objectID, err)
	}
	c.healthy.Store(true)

	if resp.Error != nil {
		return model.ObjectData{}, fmt.Errorf("get object %s: %s", objectID, resp.Error.Code)
	}
	if resp.Data == nil {
		return model.ObjectData{}, fmt.Errorf("get object %s: empty response", objectID)
	}
	return *resp.Data, nil
}

// FetchObjects retrieves many objects, paging at the fullnode's batch cap.
// Objects the node reports an error for are logged and skipped, so the
// result may be smaller than the request.
func (c *Client) FetchObjects(ctx context.Context, objectIDs []string) ([]model.ObjectData, error) {
	results := make([]model.ObjectData, 0, len(objectIDs))

	for start := 0; start < len(objectIDs); start += c.pageSize {
		end := start + c.pageSize
		if end > len(objectIDs) {
			end = len(objectIDs)
		}

		var resps []objectResponse
		err := c.rpcClient.CallContext(ctx, &resps, "sui_multiGetObjects", objectIDs[start:end], objectOptions{ShowType: true, ShowContent: true})
		if err != nil {
			c.healthy.Store(false)
			return nil, fmt.Errorf("multi get objects [%d:%d]: %w", start, end, err)
		}
		c.healthy.Store(true)

		for _, resp := range resps {
			if resp.Error != nil {
				c.logger.Warn("skipping object reported in error by node",
					zap.String("object_id", resp.Error.ObjectID),
					zap.String("code", resp.Error.Code))
				continue
			}
			if resp.Data == nil {
				continue
			}
			results = append(results, *resp.Data)
		}

		if c.pageDelay > 0 && end < len(objectIDs) {
			timer := time.NewTimer(c.pageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return results, nil
}
