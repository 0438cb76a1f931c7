package service

import (
	"fmt"

	"github.com/google/uuid"
)

// Workspace 聚合用户的三个集合，用于 WebSocket 连接建立时推送初始快照
type Workspace struct {
	templateSvc    *TemplateService
	scriptSvc      *ScriptService
	quickActionSvc *QuickActionService
}

func NewWorkspace(templateSvc *TemplateService, scriptSvc *ScriptService, quickActionSvc *QuickActionService) *Workspace {
	return &Workspace{
		templateSvc:    templateSvc,
		scriptSvc:      scriptSvc,
		quickActionSvc: quickActionSvc,
	}
}

// SetChangeNotifier 为所有服务注入推送器
func (w *Workspace) SetChangeNotifier(notifier ChangeNotifier) {
	w.templateSvc.SetChangeNotifier(notifier)
	w.scriptSvc.SetChangeNotifier(notifier)
	w.quickActionSvc.SetChangeNotifier(notifier)
}

// Snapshots 返回 collection -> 列表
func (w *Workspace) Snapshots(ownerID uuid.UUID) (map[string]interface{}, error) {
	templates, err := w.templateSvc.ListTemplates(ownerID, "", "recent")
	if err != nil {
		return nil, fmt.Errorf("templates snapshot: %w", err)
	}
	scripts, _, err := w.scriptSvc.ListScripts(ownerID, ScriptFilter{})
	if err != nil {
		return nil, fmt.Errorf("scripts snapshot: %w", err)
	}
	actions, err := w.quickActionSvc.ListQuickActions(ownerID)
	if err != nil {
		return nil, fmt.Errorf("quick actions snapshot: %w", err)
	}

	return map[string]interface{}{
		CollectionTemplates:    templates,
		CollectionScripts:      scripts,
		CollectionQuickActions: actions,
	}, nil
}
