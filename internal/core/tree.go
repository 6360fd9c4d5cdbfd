package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
)

// TreeNode is the display form of an item and its descendants.
type TreeNode struct {
	Item     models.Item `json:"item"`
	Children []*TreeNode `json:"children"`
}

// walkAncestors visits every ancestor of startID in order, following
// parent_id links up to the root. visit returning true stops the walk early.
// A revisited id means the parent chain is corrupted; the walk refuses to
// loop and reports it instead.
func walkAncestors(tx *gorm.DB, startID uuid.UUID, visit func(*models.Item) bool) error {
	seen := map[uuid.UUID]bool{}
	nextID := &startID
	for nextID != nil {
		id := *nextID
		if seen[id] {
			return fmt.Errorf("%w: parent chain contains a cycle at %s", ErrInvalidOperation, id)
		}
		seen[id] = true

		var item models.Item
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if visit(&item) {
			return nil
		}
		nextID = item.ParentID
	}
	return nil
}

// buildTree materializes an item and all its descendants iteratively, one
// stack frame per pending node rather than recursing, so pathological depth
// cannot overflow the stack. A revisited id aborts with an error instead of
// looping forever on a corrupted graph.
func buildTree(tx *gorm.DB, root models.Item) (*TreeNode, error) {
	rootNode := &TreeNode{Item: root, Children: []*TreeNode{}}
	seen := map[uuid.UUID]bool{root.ID: true}

	stack := []*TreeNode{rootNode}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.Item.IsFolder() {
			continue
		}

		var children []models.Item
		if err := tx.Where("parent_id = ?", node.Item.ID).Order("name asc").Find(&children).Error; err != nil {
			return nil, err
		}
		for _, child := range children {
			if seen[child.ID] {
				return nil, fmt.Errorf("%w: item graph contains a cycle at %s", ErrInvalidOperation, child.ID)
			}
			seen[child.ID] = true
			childNode := &TreeNode{Item: child, Children: []*TreeNode{}}
			node.Children = append(node.Children, childNode)
			stack = append(stack, childNode)
		}
	}
	return rootNode, nil
}
