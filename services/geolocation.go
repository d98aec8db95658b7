package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

type GeolocationResponse struct {
	IP          string  `json:"ip"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	RegionName  string  `json:"region_name"`
	CityName    string  `json:"city_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ISP         string  `json:"isp"`
}

// GeolocationService enriches suspicious-activity events with the origin
// of the offending address. Lookups are best-effort and cached in Redis.
type GeolocationService struct {
	appContext.DefaultService

	httpClient  *http.Client
	apiURL      string
	redisSvc    *RedisService
	cacheExpiry time.Duration
}

const GEOLOCATION_SVC = "geolocation_svc"

func (svc GeolocationService) Id() string {
	return GEOLOCATION_SVC
}

func (svc *GeolocationService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}
	svc.apiURL = "http://ip-api.com/json"
	svc.cacheExpiry = 24 * time.Hour
	return svc.DefaultService.Configure(ctx)
}

func (svc *GeolocationService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func (svc *GeolocationService) Lookup(ip string) (*GeolocationResponse, error) {
	if ip == "" || ip == "127.0.0.1" || ip == "::1" {
		return &GeolocationResponse{
			IP:          ip,
			CountryName: "Local",
			CityName:    "Local",
		}, nil
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("geolocation:%s", ip)

	if svc.redisSvc != nil {
		var cached GeolocationResponse
		if found, err := svc.redisSvc.GetJSON(ctx, cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	url := fmt.Sprintf("%s/%s", svc.apiURL, ip)

	resp, err := svc.httpClient.Get(url)
	if err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to get geolocation")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result struct {
		Status      string  `json:"status"`
		Country     string  `json:"country"`
		CountryCode string  `json:"countryCode"`
		RegionName  string  `json:"regionName"`
		City        string  `json:"city"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
		ISP         string  `json:"isp"`
		Query       string  `json:"query"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to decode geolocation response")
		return nil, err
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("geolocation lookup failed: %s", result.Status)
	}

	geoResponse := &GeolocationResponse{
		IP:          result.Query,
		CountryName: result.Country,
		CountryCode: result.CountryCode,
		RegionName:  result.RegionName,
		CityName:    result.City,
		Latitude:    result.Lat,
		Longitude:   result.Lon,
		ISP:         result.ISP,
	}

	if svc.redisSvc != nil {
		if err := svc.redisSvc.SetJSON(ctx, cacheKey, geoResponse, svc.cacheExpiry); err != nil {
			log.WithError(err).WithField("ip", ip).Warn("Failed to cache geolocation result")
		}
	}

	return geoResponse, nil
}
