package main

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/stats"
	"github.com/urfave/cli/v2"
)

// createCliApp 创建CLI应用实例
func createCliApp() *cli.App {
	var logCloser io.Closer

	app := &cli.App{
		Name:    AppName,
		Version: AppVersion,
		Usage:   AppDesc,
		Flags:   createCliFlags(),
		Before: func(c *cli.Context) error {
			closer, err := setupLogging(c.String("log-level"), c.String("log-file"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("错误: %v", err), 1)
			}
			logCloser = closer
			return nil
		},
		After: func(c *cli.Context) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	// 添加子命令
	app.Commands = createCommands()

	return app
}

// createCliFlags 创建全局参数定义
func createCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "日志级别 (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "日志文件路径，监控界面运行时未指定则丢弃日志",
		},
		&cli.StringFlag{
			Name:  "vars-db",
			Usage: "导出变量的SQLite数据库路径，未指定时只保存在内存中",
		},
	}
}

// streamFlags 数据流命令共用的参数
func streamFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "udp",
			Usage: "从该地址接收UDP帧 (例如: 127.0.0.1:9000)，未指定时使用模拟器",
		},
		&cli.StringFlag{
			Name:  "size",
			Value: "64x64",
			Usage: "图像尺寸 WxH 或 WxHxD",
		},
		&cli.StringFlag{
			Name:  "type",
			Value: "float",
			Usage: "元素类型: " + typeNames(),
		},
		&cli.Float64Flag{
			Name:  "rate",
			Value: 100,
			Usage: "模拟器帧率 (Hz)",
		},
		&cli.Float64Flag{
			Name:  "jitter",
			Value: 0.05,
			Usage: "模拟器帧间隔抖动比例",
		},
		&cli.IntFlag{
			Name:  "samples",
			Value: 1024,
			Usage: "每个计时周期的样本数",
		},
		&cli.IntFlag{
			Name:  "realtime-priority",
			Usage: "采样时使用的SCHED_FIFO优先级，0表示不提升",
		},
		&cli.DurationFlag{
			Name:  "wait-timeout",
			Value: 2 * time.Second,
			Usage: "单帧等待超时 (例如: 500ms, 2s)",
		},
	}
}

// createCommands 创建子命令
func createCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "imstats",
			Usage:     "在控制台输出图像统计",
			ArgsUsage: "<图像文件>",
			Action:    runImstats,
		},
		{
			Name:      "imstatsf",
			Usage:     "将图像统计写入报告文件",
			ArgsUsage: "<图像文件>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "out",
					Value: "imstat.info.txt",
					Usage: "报告文件路径",
				},
			},
			Action: runImstatsf,
		},
		{
			Name:      "cubestats",
			Usage:     "逐切片统计数据立方体",
			ArgsUsage: "<切片文件...>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "mask",
					Usage: "掩膜图像文件，未指定时统计全部像素",
				},
				&cli.StringFlag{
					Name:  "out",
					Value: "cubestat.txt",
					Usage: "逐切片统计输出文件",
				},
				&cli.StringFlag{
					Name:  "corr",
					Value: "corr.txt",
					Usage: "时间相关输出文件，为空时不计算",
				},
				&cli.IntFlag{
					Name:  "max-lag",
					Value: stats.DefaultMaxLag,
					Usage: "时间相关的最大间隔",
				},
				&cli.StringFlag{
					Name:  "html",
					Usage: "逐切片统计图表的HTML输出文件",
				},
			},
			Action: runCubestats,
		},
		{
			Name:      "cubeslmatch",
			Usage:     "寻找数据立方体中最相似的切片对",
			ArgsUsage: "<切片文件...>",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "min-gap",
					Value: 996,
					Usage: "最小切片间隔（含）",
				},
				&cli.IntFlag{
					Name:  "max-gap",
					Value: 1004,
					Usage: "最大切片间隔（含）",
				},
				&cli.Float64Flag{
					Name:  "min-value",
					Value: 1,
					Usage: "只保留差值大于该值的配对",
				},
				&cli.IntFlag{
					Name:  "keep",
					Value: 10,
					Usage: "RMS图像使用的最佳配对数",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: runtime.GOMAXPROCS(0),
					Usage: "并行计算的goroutine数",
				},
				&cli.StringSliceFlag{
					Name:  "full",
					Usage: "计算RMS图像用的完整分辨率立方体切片，未指定时使用输入立方体",
				},
				&cli.StringFlag{
					Name:  "prefix",
					Value: "outtest",
					Usage: "输出文件名前缀",
				},
				&cli.StringFlag{
					Name:  "rms",
					Value: "imRMS.png",
					Usage: "RMS图像输出文件",
				},
				&cli.StringFlag{
					Name:  "matrix",
					Usage: "复用此前输出的矩阵列表 (<prefix>.txt)，不再重新计算",
				},
			},
			Action: runCubeslmatch,
		},
		{
			Name:      "profile",
			Usage:     "计算图像的径向轮廓",
			ArgsUsage: "<图像文件>",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  "cx",
					Usage: "中心x坐标",
				},
				&cli.Float64Flag{
					Name:  "cy",
					Usage: "中心y坐标",
				},
				&cli.Float64Flag{
					Name:  "step",
					Value: 1,
					Usage: "径向步长（像素）",
				},
				&cli.IntFlag{
					Name:  "nstep",
					Value: 100,
					Usage: "径向步数",
				},
				&cli.StringFlag{
					Name:  "mask",
					Usage: "掩膜图像文件",
				},
				&cli.StringFlag{
					Name:  "out",
					Value: "profile.txt",
					Usage: "轮廓输出文件",
				},
			},
			Action: runProfile,
		},
		{
			Name:      "profile2im",
			Usage:     "由径向轮廓文件生成图像",
			ArgsUsage: "<轮廓文件>",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "nbpoints",
					Usage: "读取的轮廓点数，0表示全部",
				},
				&cli.IntFlag{
					Name:  "size",
					Value: 512,
					Usage: "输出图像边长（像素）",
				},
				&cli.Float64Flag{
					Name:  "cx",
					Usage: "中心x坐标，默认图像中心",
				},
				&cli.Float64Flag{
					Name:  "cy",
					Usage: "中心y坐标，默认图像中心",
				},
				&cli.Float64Flag{
					Name:  "radius",
					Value: 100,
					Usage: "轮廓覆盖的半径（像素）",
				},
				&cli.StringFlag{
					Name:  "out",
					Value: "profim.png",
					Usage: "图像输出文件",
				},
			},
			Action: runProfile2im,
		},
		{
			Name:      "brighter",
			Usage:     "统计高于阈值的像素数",
			ArgsUsage: "<图像文件>",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  "value",
					Usage: "阈值",
				},
			},
			Action: runBrighter,
		},
		{
			Name:      "printpix",
			Usage:     "将像素值列表写入文本文件",
			ArgsUsage: "<图像文件>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "out",
					Value: "pixlist.txt",
					Usage: "像素列表输出文件",
				},
				&cli.IntFlag{
					Name:  "istep",
					Value: 1,
					Usage: "x方向步长，未指定时取变量_iistep",
				},
				&cli.IntFlag{
					Name:  "jstep",
					Value: 1,
					Usage: "y方向步长，未指定时取变量_jjstep",
				},
			},
			Action: runPrintpix,
		},
		{
			Name:      "bgnoise",
			Usage:     "由暗端像素分布估计背景噪声",
			ArgsUsage: "<图像文件>",
			Action:    runBgnoise,
		},
		{
			Name:      "nbpixflux",
			Usage:     "输出从暗到亮的累计通量",
			ArgsUsage: "<图像文件>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "out",
					Value: "nbpix_flux.txt",
					Usage: "累计通量输出文件",
				},
			},
			Action: runNbpixflux,
		},
		{
			Name:      "structfunc",
			Usage:     "计算图像的结构函数",
			ArgsUsage: "<图像文件>",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "npoints",
					Value: 1000,
					Usage: "使用的起点数",
				},
				&cli.StringFlag{
					Name:  "out",
					Value: "sfunc.png",
					Usage: "结构函数图像输出文件",
				},
			},
			Action: runStructfunc,
		},
		{
			Name:      "imgmon",
			Aliases:   []string{"monitor"},
			Usage:     "在终端中实时监控数据流图像",
			ArgsUsage: "[图像名称]",
			Flags: append(streamFlags(),
				&cli.Float64Flag{
					Name:  "frequ",
					Value: 10,
					Usage: "界面刷新频率 (Hz)",
				},
				&cli.IntFlag{
					Name:  "partitions",
					Value: 4,
					Usage: "计时视图的分段数",
				},
			),
			Action: runMonitor,
		},
		{
			Name:      "streamtiming",
			Usage:     "不启动界面，测量数据流帧间隔",
			ArgsUsage: "[图像名称]",
			Flags: append(streamFlags(),
				&cli.IntFlag{
					Name:  "cycles",
					Value: 1,
					Usage: "采样周期数",
				},
				&cli.IntFlag{
					Name:  "slot",
					Usage: "测量的信号量槽位",
				},
				&cli.StringFlag{
					Name:  "hist",
					Usage: "帧间隔直方图PNG输出文件",
				},
			),
			Action: runStreamTiming,
		},
		{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   "显示详细版本信息",
			Action: func(c *cli.Context) error {
				fmt.Printf("%s v%s\n", AppName, AppVersion)
				fmt.Printf("描述: %s\n", AppDesc)
				fmt.Printf("系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
				fmt.Printf("元素类型: %d 种\n", len(core.Kinds()))
				return nil
			},
		},
	}
}
