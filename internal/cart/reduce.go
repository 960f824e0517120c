package cart

import "time"

// Reduce 纯状态迁移函数：(快照, 命令) -> 新快照
// 不修改入参快照；所有改变行项目的命令都会完整重算汇总。
func Reduce(state Snapshot, cmd Command, now time.Time) Snapshot {
	switch c := cmd.(type) {
	case AddItem:
		return reduceAddItem(state, c, now)
	case RemoveItem:
		return reduceRemoveItem(state, c.ItemID)
	case UpdateQuantity:
		return reduceUpdateQuantity(state, c)
	case ClearCart:
		state.Items = []LineItem{}
		return recompute(state)
	case ToggleCart:
		state.IsOpen = !state.IsOpen
		return state
	case OpenCart:
		state.IsOpen = true
		return state
	case CloseCart:
		state.IsOpen = false
		return state
	case Load:
		return Normalize(c.Snapshot)
	default:
		return state
	}
}

func reduceAddItem(state Snapshot, c AddItem, now time.Time) Snapshot {
	if c.Quantity < 1 {
		return state
	}
	key := LineKey(c.Product.ID, c.Variant.ID)
	items := make([]LineItem, 0, len(state.Items)+1)
	found := false
	for _, item := range state.Items {
		if item.ID == key {
			item.Quantity += c.Quantity
			found = true
		}
		items = append(items, item)
	}
	if !found {
		items = append(items, LineItem{
			ID:       key,
			Product:  cloneProduct(c.Product),
			Variant:  c.Variant,
			Quantity: c.Quantity,
			AddedAt:  now.UTC(),
		})
	}
	state.Items = items
	return recompute(state)
}

func reduceRemoveItem(state Snapshot, itemID string) Snapshot {
	items := make([]LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	state.Items = items
	return recompute(state)
}

func reduceUpdateQuantity(state Snapshot, c UpdateQuantity) Snapshot {
	if c.Quantity <= 0 {
		return reduceRemoveItem(state, c.ItemID)
	}
	items := make([]LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.ID == c.ItemID {
			item.Quantity = c.Quantity
		}
		items = append(items, item)
	}
	state.Items = items
	return recompute(state)
}

// Normalize 修正外部来源的快照：丢弃数量 < 1 的行、合并重复标识、重算汇总
func Normalize(s Snapshot) Snapshot {
	items := make([]LineItem, 0, len(s.Items))
	index := make(map[string]int, len(s.Items))
	for _, item := range s.Items {
		if item.Quantity < 1 {
			continue
		}
		if item.ID == "" {
			item.ID = LineKey(item.Product.ID, item.Variant.ID)
		}
		if pos, ok := index[item.ID]; ok {
			items[pos].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	s.Items = items
	return recompute(s)
}

func recompute(state Snapshot) Snapshot {
	state.TotalQuantity, state.TotalPrice = Totals(state.Items)
	return state
}
