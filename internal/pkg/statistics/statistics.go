package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/fitfox/FitFox/app/models"
	"github.com/fitfox/FitFox/internal/pkg/cache"
	"github.com/fitfox/FitFox/internal/pkg/database"
)

const (
	CacheKeyUsers         = "statistics:users:total"
	CacheKeySubscriptions = "statistics:subscriptions:active"
	CacheKeyClientLinks   = "statistics:clients:coached"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the headline numbers shown on the landing page
// and the admin dashboard.
type StatisticsData struct {
	TotalUsers          int
	ActiveSubscriptions int
	CoachedClients      int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache checks if the cache should be refreshed
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recounts everything and stores the values in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	var activeSubs int64
	if err := db.Model(&models.Subscription{}).Where("active = ?", true).Count(&activeSubs).Error; err != nil {
		log.Printf("Error counting active subscriptions: %v", err)
		return err
	}

	var coachedClients int64
	if err := db.Table("trainers_clients").Count(&coachedClients).Error; err != nil {
		log.Printf("Error counting coached clients: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching user count: %v", err)
		return err
	}
	if err := cache.Set(CacheKeySubscriptions, strconv.FormatInt(activeSubs, 10), CacheExpiration); err != nil {
		log.Printf("Error caching subscription count: %v", err)
		return err
	}
	if err := cache.Set(CacheKeyClientLinks, strconv.FormatInt(coachedClients, 10), CacheExpiration); err != nil {
		log.Printf("Error caching coached client count: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Users: %d, Active Subscriptions: %d, Coached Clients: %d",
		totalUsers, activeSubs, coachedClients)

	return nil
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	return readCount(CacheKeyUsers, countUsers)
}

// GetStatisticsData returns all statistics, refreshing the cache when stale
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TotalUsers:          readCount(CacheKeyUsers, countUsers),
		ActiveSubscriptions: readCount(CacheKeySubscriptions, countActiveSubscriptions),
		CoachedClients:      readCount(CacheKeyClientLinks, countCoachedClients),
	}
}

func countUsers() (int64, error) {
	var count int64
	err := database.GetDB().Model(&models.User{}).Count(&count).Error
	return count, err
}

func countActiveSubscriptions() (int64, error) {
	var count int64
	err := database.GetDB().Model(&models.Subscription{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

func countCoachedClients() (int64, error) {
	var count int64
	err := database.GetDB().Table("trainers_clients").Count(&count).Error
	return count, err
}

// readCount serves the cached value and falls back to a fresh count on a miss.
func readCount(key string, countFn func() (int64, error)) int {
	val, err := cache.Get(key)
	if err != nil {
		count, cerr := countFn()
		if cerr != nil {
			log.Printf("Error counting for %s: %v", key, cerr)
			return 0
		}

		if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}
