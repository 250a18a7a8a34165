package preprocessing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// Override moves one column from a source group to a destination group.
type Override struct {
	SourceGroup      string `json:"source_group"`
	DestinationGroup string `json:"destination_group"`
	ColumnName       string `json:"column_name"`
}

func (o Override) String() string {
	return fmt.Sprintf("%s:%s:%s", o.SourceGroup, o.DestinationGroup, o.ColumnName)
}

// ParseOverride parses "source:destination:column". The column part may
// itself contain ':'.
func ParseOverride(s string) (Override, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Override{}, errors.NewValueError("ParseOverride",
			fmt.Sprintf("expected source:destination:column, got %q", s))
	}
	return Override{SourceGroup: parts[0], DestinationGroup: parts[1], ColumnName: parts[2]}, nil
}

// ApplyOverride はグループ割り当ての手動変更を適用する
//
// グループ名が不正、または列が移動元グループに存在しない場合は、入力と同じ
// 割り当てを変更せずに返し、*errors.OverrideError を報告する（致命的ではない）。
// 成功時は列を移動元から取り除き、移動先の末尾に追加した新しい割り当てを返す。
func ApplyOverride(groups ColumnGroups, o Override, opts ...Option) (ColumnGroups, error) {
	logger := buildOptions(opts).logger.With(log.OperationKey, log.OperationOverride)

	src, srcOK := ParseGroup(o.SourceGroup)
	dst, dstOK := ParseGroup(o.DestinationGroup)
	var reason string
	switch {
	case !srcOK:
		reason = fmt.Sprintf("unknown source group %q", o.SourceGroup)
	case !dstOK:
		reason = fmt.Sprintf("unknown destination group %q", o.DestinationGroup)
	case !slices.Contains(groups[src], o.ColumnName):
		reason = fmt.Sprintf("column not in %s", src)
	}
	if reason != "" {
		err := errors.NewOverrideError(o.SourceGroup, o.DestinationGroup, o.ColumnName, reason)
		logger.Warn("override not applied",
			log.ColumnKey, o.ColumnName,
			log.SourceGroupKey, o.SourceGroup,
			log.DestinationGroupKey, o.DestinationGroup,
			log.ErrAttrKey, err,
		)
		return groups, err
	}

	out := groups.Clone()
	if src == dst {
		return out, nil
	}
	out[src] = slices.DeleteFunc(out[src], func(c string) bool { return c == o.ColumnName })
	if !slices.Contains(out[dst], o.ColumnName) {
		out[dst] = append(out[dst], o.ColumnName)
	}
	logger.Info("column moved",
		log.ColumnKey, o.ColumnName,
		log.SourceGroupKey, string(src),
		log.DestinationGroupKey, string(dst),
	)
	return out, nil
}

// ApplyOverrides applies each override in turn, skipping invalid ones. The
// skipped overrides' errors are returned joined.
func ApplyOverrides(groups ColumnGroups, overrides []Override, opts ...Option) (ColumnGroups, error) {
	var errs []error
	for _, o := range overrides {
		next, err := ApplyOverride(groups, o, opts...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		groups = next
	}
	return groups, errors.Join(errs...)
}
