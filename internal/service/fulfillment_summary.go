package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/padaria-next/internal/constants"
)

// ShortageSummaries 返回缺口报告的逐行描述
func ShortageSummaries(entries []ShortageEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Summary())
	}
	return lines
}

// FailureSummaries 返回批量失败的 "客户: 原因" 列表
func (r *BatchResult) FailureSummaries() []string {
	if r == nil {
		return nil
	}
	lines := make([]string, 0, len(r.FailedOrders))
	for _, failure := range r.FailedOrders {
		who := strings.TrimSpace(failure.ClientName)
		if who == "" {
			who = failure.OrderNo
		}
		if who == "" {
			who = fmt.Sprintf("order %d", failure.OrderID)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", who, failure.Reason))
	}
	return lines
}

// Summary 返回批量结果的一行汇总
func (r *BatchResult) Summary() string {
	if r == nil {
		return ""
	}
	switch r.Status {
	case constants.BatchStatusSuccess:
		return fmt.Sprintf("%d orders delivered", r.SucceededCount)
	case constants.BatchStatusPartial:
		return fmt.Sprintf("%d orders delivered, %d failed", r.SucceededCount, len(r.FailedOrders))
	case constants.BatchStatusAborted:
		if r.Stage == constants.BatchStageValidate {
			return fmt.Sprintf("batch aborted before commit: %d products short", len(r.Shortages))
		}
		return fmt.Sprintf("batch aborted at %s stage", r.Stage)
	default:
		return fmt.Sprintf("no order delivered, %d failed", len(r.FailedOrders))
	}
}

// describeResolveFailure 解析阶段失败的状态与可读原因
func describeResolveFailure(err error) (string, string) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return constants.CommitStatusOrderNotFound, "order not found"
	case errors.Is(err, ErrOrderNotPending):
		return constants.CommitStatusOrderNotFound, "order is no longer pending"
	case errors.Is(err, ErrConfiguration):
		return constants.ResolveStatusConfiguration, "no active product has an allocation percentage"
	case errors.Is(err, ErrNoValidItems):
		return constants.ResolveStatusNoValidItems, "none of the ordered items matches an active product"
	case errors.Is(err, ErrInvalidQuantity):
		return constants.CommitStatusInvalidQuantity, "order quantity is invalid"
	case errors.Is(err, ErrInvalidOrderMode):
		return constants.ResolveStatusInvalidMode, "order mode is invalid"
	case err != nil:
		return constants.CommitStatusUnknown, err.Error()
	default:
		return constants.CommitStatusUnknown, "requirement resolution failed"
	}
}

func describeFailure(cerr *CommitError) string {
	if cerr == nil {
		return ""
	}
	switch cerr.Status {
	case constants.CommitStatusInsufficientStock:
		if len(cerr.Shortages) == 0 {
			return "insufficient stock"
		}
		return "insufficient stock: " + strings.Join(ShortageSummaries(cerr.Shortages), "; ")
	case constants.CommitStatusOrderNotFound:
		return "order not found or already delivered"
	case constants.CommitStatusInvalidQuantity:
		return "order quantity is invalid"
	default:
		if cerr.Err != nil {
			return "delivery failed: " + cerr.Err.Error()
		}
		return "delivery failed"
	}
}
