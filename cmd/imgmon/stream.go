package main

import (
	"fmt"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/feed"
	"github.com/Kevin-Rudy/imgmon/pkg/imagestore"
)

// stream 图像与写入它的帧生产者
type stream struct {
	image    *imagestore.Image
	producer core.Producer
}

// openStream 在新的图像库中创建图像并启动生产者
func openStream(config *AppConfig) (*stream, error) {
	store := imagestore.NewStore()
	im, err := store.Create(config.ImageName, config.Type, imagestore.DefaultSemaphores, config.Size...)
	if err != nil {
		return nil, err
	}

	producer, err := newProducer(config, im)
	if err != nil {
		return nil, err
	}
	if err := producer.Start(); err != nil {
		producer.Stop()
		return nil, fmt.Errorf("无法启动生产者: %v", err)
	}
	return &stream{image: im, producer: producer}, nil
}

// newProducer 指定UDP地址时创建接收器，否则创建模拟器
func newProducer(config *AppConfig, im *imagestore.Image) (core.Producer, error) {
	if config.UDPAddr == "" {
		return feed.NewSimulator(im, config.FeedConfig)
	}

	receiver, err := feed.NewUDPReceiver(im, config.FeedConfig)
	if err != nil {
		return nil, err
	}
	fmt.Printf("正在监听 %s\n", receiver.Addr())
	return receiver, nil
}
