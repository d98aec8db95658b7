package main

import (
	"github.com/couponhub/coupon_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file found, using system environment variables")
	}

	ctx, err := context.NewCtx(
		&services.PostgresService{},
		&services.RedisService{},
		&services.MinIOService{},

		&services.JWTService{},
		&services.RateLimitService{},
		&services.CSRFService{},
		&services.SessionActivityService{},
		&services.LockoutService{},
		&services.AuditService{},
		&services.GeolocationService{},
		&services.SecurityService{},

		&services.AuthService{},
		&services.CatalogService{},
		&services.UserService{},
		&services.MediaService{},

		&services.MonitoringService{},
		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
