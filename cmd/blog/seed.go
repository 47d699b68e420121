package main

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"blog-backend/internal/repository/gormstore"
	"blog-backend/internal/service"
)

type seedPost struct {
	title     string
	content   string
	published bool
}

type seedUser struct {
	email string
	name  string
	posts []seedPost
}

var seedData = []seedUser{
	{
		email: "alice@prisma.io",
		name:  "Alice",
		posts: []seedPost{
			{title: "Join the Prisma Discord", content: "https://pris.ly/discord", published: true},
		},
	},
	{
		email: "nilu@prisma.io",
		name:  "Nilu",
		posts: []seedPost{
			{title: "Follow Prisma on Twitter", content: "https://www.twitter.com/prisma", published: true},
		},
	},
	{
		email: "mahmoud@prisma.io",
		name:  "Mahmoud",
		posts: []seedPost{
			{title: "Ask a question about Prisma on GitHub", content: "https://www.github.com/prisma/prisma/discussions", published: true},
			{title: "Prisma on YouTube", content: "https://pris.ly/youtube"},
		},
	},
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:        "seed",
		Usage:       "Insert sample users and posts",
		Description: `Creates a small sample dataset. Users whose email already exists are skipped together with their posts.`,
		Action: func(cliCtx *cli.Context) error {
			cfg, logger, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}

			db, err := openDatabase(cliCtx.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer gormstore.Close(db)

			userRepo := gormstore.NewUserRepository(db)
			users := service.NewUserService(userRepo)
			posts := service.NewPostService(gormstore.NewPostRepository(db), userRepo, cfg.Feed.DefaultTake, logger)
			return seed(cliCtx.Context, users, posts, logger)
		},
	}
}

func seed(ctx context.Context, users service.UserService, posts service.PostService, logger *logrus.Logger) error {
	for _, u := range seedData {
		if _, err := users.Signup(ctx, u.email, lo.ToPtr(u.name)); err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				logger.WithField("email", u.email).Info("user exists, skipping")
				continue
			}
			return err
		}

		for _, p := range u.posts {
			post, err := posts.CreatePost(ctx, p.title, lo.ToPtr(p.content), u.email)
			if err != nil {
				return err
			}
			if p.published {
				if _, err := posts.Publish(ctx, post.ID); err != nil {
					return err
				}
			}
		}
	}
	logger.Info("seed complete")
	return nil
}
