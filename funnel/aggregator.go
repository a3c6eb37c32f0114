package funnel

import (
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ridefunnel/model"
)

const computeFunnelTag = "Funnel#ComputeFunnel"

// ComputeFunnel runs the ordered stage table over the wide fact rows:
// for each stage and each grouping-key combination present in the data,
// the distinct (or raw) count of the metric entity restricted to rows
// satisfying the stage predicate. The SQL source expressed this as one
// SELECT per stage glued by UNION ALL; here it is one loop over the
// stage table.
//
// A combination with downloads but no conversions still gets every
// stage row, zero-filled, so a zero-conversion segment stays visible.
// Rows a grouping dimension cannot place (nil request hour) are
// excluded from that invocation entirely, per the hourly policy.
//
// Output ordering: grouping-key values ascending, then stage index.
func ComputeFunnel(facts []model.FactRow, query model.FunnelQuery) ([]model.FunnelRow, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		log.WithFields(log.Fields{"prefix": computeFunnelTag,
			"metric": query.Metric}).WithError(err).Error("Rejected funnel query.")
		return nil, err
	}

	type partition struct {
		values []string
		counts []int64
	}

	partitions := make(map[string]*partition)
	distinct := make([]map[string]map[string]struct{}, len(query.Stages))
	for i := range distinct {
		distinct[i] = make(map[string]map[string]struct{})
	}

	for i := range facts {
		fact := &facts[i]

		values, ok := groupValues(fact, query.GroupBy)
		if !ok {
			continue
		}
		key := strings.Join(values, "\x00")

		part, exists := partitions[key]
		if !exists {
			part = &partition{values: values, counts: make([]int64, len(query.Stages))}
			partitions[key] = part
		}

		for s := range query.Stages {
			stage := &query.Stages[s]
			if !stage.Predicate(fact) {
				continue
			}

			if stage.Mode == model.CountRaw {
				part.counts[s]++
				continue
			}

			entity, ok := entityKey(fact, stage.Mode)
			if !ok {
				continue
			}

			seen, exists := distinct[s][key]
			if !exists {
				seen = make(map[string]struct{})
				distinct[s][key] = seen
			}
			if _, counted := seen[entity]; counted {
				continue
			}
			seen[entity] = struct{}{}
			part.counts[s]++
		}
	}

	keys := make([]string, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]model.FunnelRow, 0, len(keys)*len(query.Stages))
	for _, key := range keys {
		part := partitions[key]
		for s := range query.Stages {
			rows = append(rows, model.FunnelRow{
				StageIndex:  query.Stages[s].Index,
				StageName:   query.Stages[s].Name,
				GroupValues: part.values,
				Count:       part.counts[s],
			})
		}
	}

	log.WithFields(log.Fields{
		"prefix":     computeFunnelTag,
		"metric":     query.Metric,
		"group_by":   query.GroupBy,
		"stages":     len(query.Stages),
		"partitions": len(keys),
		"took":       time.Since(startTime),
	}).Debug("Computed funnel.")

	return rows, nil
}

func groupValues(fact *model.FactRow, groupBy []string) ([]string, bool) {
	if len(groupBy) == 0 {
		return []string{}, true
	}

	values := make([]string, len(groupBy))
	for i, dimension := range groupBy {
		value, ok := fact.GroupValue(dimension)
		if !ok {
			return nil, false
		}
		values[i] = value
	}
	return values, true
}

func entityKey(fact *model.FactRow, mode int) (string, bool) {
	switch mode {
	case model.CountDistinctUser:
		if fact.UserID == nil {
			return "", false
		}
		return *fact.UserID, true
	case model.CountDistinctRide:
		if fact.RideID == nil {
			return "", false
		}
		return *fact.RideID, true
	case model.CountDistinctDownload:
		return fact.DownloadKey, true
	}
	return "", false
}
