package repository

import (
	"context"
	"encoding/json"
	"github.com/ZilDuck/nft-marketplace/internal/activity"
	"github.com/ZilDuck/nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
)

const defaultSize = 50

type ActivityRepository interface {
	GetRecentActivity(ctx context.Context, size int) ([]entity.Activity, error)
	GetAssetActivity(ctx context.Context, asset string, size int) ([]entity.Activity, error)
}

type activityRepository struct {
	elastic elastic_search.Index
}

func NewActivityRepository(elastic elastic_search.Index) ActivityRepository {
	return activityRepository{elastic}
}

func (r activityRepository) GetRecentActivity(ctx context.Context, size int) ([]entity.Activity, error) {
	return r.findAll(search(ctx, r.elastic.GetClient().
		Search(r.elastic.IndexName(elastic_search.ActivityIndex)).
		Query(elastic.NewMatchAllQuery()).
		Sort("time", false).
		Size(sizeOrDefault(size))))
}

func (r activityRepository) GetAssetActivity(ctx context.Context, asset string, size int) ([]entity.Activity, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("asset.keyword", asset),
	)

	return r.findAll(search(ctx, r.elastic.GetClient().
		Search(r.elastic.IndexName(elastic_search.ActivityIndex)).
		Query(query).
		Sort("time", false).
		Size(sizeOrDefault(size))))
}

func (r activityRepository) findAll(results *elastic.SearchResult, err error) ([]entity.Activity, error) {
	activities := make([]entity.Activity, 0)

	if err != nil {
		zap.L().With(zap.Error(err)).Error("ActivityRepository: Search failed")
		return activities, err
	}

	for _, hit := range results.Hits.Hits {
		var a entity.Activity
		if err := json.Unmarshal(hit.Source, &a); err != nil {
			zap.L().With(zap.Error(err), zap.String("id", hit.Id)).Error("ActivityRepository: Failed to unmarshal activity")
			continue
		}
		activities = append(activities, a)
	}

	return activities, nil
}

type feedActivityRepository struct {
	feed activity.Feed
}

// NewFeedActivityRepository serves activity from the in-process feed when no
// search index is configured.
func NewFeedActivityRepository(feed activity.Feed) ActivityRepository {
	return feedActivityRepository{feed}
}

func (r feedActivityRepository) GetRecentActivity(_ context.Context, size int) ([]entity.Activity, error) {
	return r.feed.Recent(sizeOrDefault(size)), nil
}

func (r feedActivityRepository) GetAssetActivity(_ context.Context, asset string, size int) ([]entity.Activity, error) {
	activities := r.feed.ForAsset(asset)
	if limit := sizeOrDefault(size); len(activities) > limit {
		activities = activities[:limit]
	}

	return activities, nil
}

func sizeOrDefault(size int) int {
	if size <= 0 {
		return defaultSize
	}
	return size
}
