package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/imagestore"
	"github.com/Kevin-Rudy/imgmon/pkg/match"
	"github.com/Kevin-Rudy/imgmon/pkg/persist"
	"github.com/Kevin-Rudy/imgmon/pkg/stats"
	"github.com/Kevin-Rudy/imgmon/pkg/timing"
	"github.com/Kevin-Rudy/imgmon/pkg/tui"
	"github.com/Kevin-Rudy/imgmon/pkg/vars"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var log = logrus.WithField("component", "cli")

// runImstats 在控制台输出图像统计并导出变量
func runImstats(c *cli.Context) error {
	buf, name, err := loadArg(c)
	if err != nil {
		return err
	}

	report, err := stats.Compute(buf)
	if err != nil {
		return cli.Exit(fmt.Sprintf("统计失败: %v", err), 1)
	}
	if err := stats.WriteConsole(os.Stdout, name, buf, report); err != nil {
		return cli.Exit(fmt.Sprintf("输出失败: %v", err), 1)
	}
	return exportVars(c, buf, report)
}

// runImstatsf 将图像统计写入报告文件并导出变量
func runImstatsf(c *cli.Context) error {
	buf, _, err := loadArg(c)
	if err != nil {
		return err
	}

	report, err := stats.Compute(buf)
	if err != nil {
		return cli.Exit(fmt.Sprintf("统计失败: %v", err), 1)
	}
	out := c.String("out")
	if err := writeFile(out, func(f *os.File) error {
		return stats.WriteText(f, report)
	}); err != nil {
		return cli.Exit(fmt.Sprintf("无法写入报告: %v", err), 1)
	}
	fmt.Printf("统计报告已写入 %s\n", out)
	return exportVars(c, buf, report)
}

// runCubestats 逐切片统计数据立方体，并计算切片间的时间相关
func runCubestats(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("错误: 必须指定至少一个切片文件", 1)
	}
	cube, err := imagestore.LoadCube(c.Args().Slice())
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法加载立方体: %v", err), 1)
	}
	mask, err := loadOptional(c.String("mask"))
	if err != nil {
		return err
	}

	rows, err := stats.CubeStats(cube, mask)
	if err != nil {
		return cli.Exit(fmt.Sprintf("立方体统计失败: %v", err), 1)
	}
	out := c.String("out")
	if err := writeFile(out, func(f *os.File) error {
		return stats.WriteCubeStats(f, rows)
	}); err != nil {
		return cli.Exit(fmt.Sprintf("无法写入统计: %v", err), 1)
	}
	fmt.Printf("%d 个切片的统计已写入 %s\n", len(rows), out)

	if corrFile := c.String("corr"); corrFile != "" {
		corr, err := stats.CubeCorrelation(cube, mask, c.Int("max-lag"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("时间相关计算失败: %v", err), 1)
		}
		if err := writeFile(corrFile, func(f *os.File) error {
			return stats.WriteCorrelation(f, corr)
		}); err != nil {
			return cli.Exit(fmt.Sprintf("无法写入时间相关: %v", err), 1)
		}
		fmt.Printf("时间相关已写入 %s\n", corrFile)
	}

	if htmlFile := c.String("html"); htmlFile != "" {
		if err := persist.SaveCubeStatsHTML(htmlFile, rows, "cubestats"); err != nil {
			return cli.Exit(fmt.Sprintf("无法写入图表: %v", err), 1)
		}
		fmt.Printf("统计图表已写入 %s\n", htmlFile)
	}
	return nil
}

// runCubeslmatch 计算差异矩阵，按间隔窗口排序配对并生成RMS图像
func runCubeslmatch(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("错误: 立方体至少需要两个切片文件", 1)
	}
	config, err := buildMatchConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("配置验证失败: %v", err), 1)
	}

	cube, err := imagestore.LoadCube(c.Args().Slice())
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法加载立方体: %v", err), 1)
	}
	store := imagestore.NewStore()
	store.Put("cube", cube, imagestore.DefaultSemaphores)
	if saved := c.String("matrix"); saved != "" {
		buf, err := readMatrixFile(saved)
		if err != nil {
			return cli.Exit(fmt.Sprintf("无法读取差异矩阵 %s: %v", saved, err), 1)
		}
		store.Put("cubemm", buf, imagestore.DefaultSemaphores)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("正在计算差异矩阵 - 立方体深度 %d，每片 %d 像素\n", cube.Size[2], cube.Size[0]*cube.Size[1])
	m, reused, err := match.ComputeInStore(ctx, store, "cube", "cubemm", config)
	if err != nil {
		return cli.Exit(fmt.Sprintf("差异矩阵计算失败: %v", err), 1)
	}
	if reused {
		if m.Depth != cube.Size[2] {
			return cli.Exit(fmt.Sprintf("错误: 差异矩阵为 %d×%d，与立方体深度 %d 不符", m.Depth, m.Depth, cube.Size[2]), 1)
		}
		fmt.Println("使用已保存的差异矩阵")
	}

	prefix := c.String("prefix")
	pairs := match.Candidates(m, config)
	ranking := match.Sort(pairs)
	outputs := []struct {
		path  string
		write func(f *os.File) error
	}{
		{prefix + ".txt", func(f *os.File) error { return match.WriteMatrixListing(f, m) }},
		{prefix + ".unsorted.txt", func(f *os.File) error { return match.WritePairs(f, pairs) }},
		{prefix + ".sorted.txt", func(f *os.File) error { return match.WritePairs(f, ranking) }},
	}
	for _, o := range outputs {
		if err := writeFile(o.path, o.write); err != nil {
			return cli.Exit(fmt.Sprintf("无法写入 %s: %v", o.path, err), 1)
		}
	}
	if err := persist.SaveHeatmap(prefix+".png", m.Buffer(), "slice difference"); err != nil {
		return cli.Exit(fmt.Sprintf("无法保存差异矩阵图: %v", err), 1)
	}
	fmt.Printf("保留 %d / %d 个配对\n", min(config.Keep, len(ranking)), len(ranking))

	if len(ranking) == 0 {
		fmt.Println("间隔窗口内没有配对，跳过RMS图像")
		return nil
	}
	full := cube
	if files := c.StringSlice("full"); len(files) > 0 {
		if full, err = imagestore.LoadCube(files); err != nil {
			return cli.Exit(fmt.Sprintf("无法加载完整分辨率立方体: %v", err), 1)
		}
	}
	rms, err := match.RMSImage(full, ranking, config.Keep)
	if err != nil {
		return cli.Exit(fmt.Sprintf("RMS图像计算失败: %v", err), 1)
	}
	store.Put("imRMS", rms, imagestore.DefaultSemaphores)
	rmsFile := c.String("rms")
	if err := persist.SaveHeatmap(rmsFile, rms, "imRMS"); err != nil {
		return cli.Exit(fmt.Sprintf("无法保存RMS图像: %v", err), 1)
	}
	fmt.Printf("RMS图像已写入 %s\n", rmsFile)
	return nil
}

// runProfile 计算图像的径向轮廓
func runProfile(c *cli.Context) error {
	buf, _, err := loadArg(c)
	if err != nil {
		return err
	}
	mask, err := loadOptional(c.String("mask"))
	if err != nil {
		return err
	}

	bins, err := stats.Profile(buf, mask, c.Float64("cx"), c.Float64("cy"), c.Float64("step"), c.Int("nstep"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("径向轮廓计算失败: %v", err), 1)
	}
	out := c.String("out")
	if err := writeFile(out, func(f *os.File) error {
		return stats.WriteProfile(f, bins)
	}); err != nil {
		return cli.Exit(fmt.Sprintf("无法写入轮廓: %v", err), 1)
	}
	fmt.Printf("%d 个环的径向轮廓已写入 %s\n", len(bins), out)
	return nil
}

// runBrighter 统计高于阈值的像素数
func runBrighter(c *cli.Context) error {
	buf, name, err := loadArg(c)
	if err != nil {
		return err
	}
	value := c.Float64("value")
	brighter, fainter, err := stats.Brighter(buf, value)
	if err != nil {
		return cli.Exit(fmt.Sprintf("统计失败: %v", err), 1)
	}
	fmt.Printf("%s: %d 个像素高于 %g，%d 个不高于\n", name, brighter, value, fainter)
	return nil
}

// runPrintpix 列出像素值，未指定步长时取变量_iistep和_jjstep
func runPrintpix(c *cli.Context) error {
	buf, _, err := loadArg(c)
	if err != nil {
		return err
	}
	reg, closeFn, err := openRegistry(c.String("vars-db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法打开变量数据库: %v", err), 1)
	}
	istep := stepFlag(c, reg, "istep", "_iistep")
	jstep := stepFlag(c, reg, "jstep", "_jjstep")
	closeFn()

	out := c.String("out")
	if err := writeFile(out, func(f *os.File) error {
		return stats.WritePixels(f, buf, istep, jstep)
	}); err != nil {
		return cli.Exit(fmt.Sprintf("无法写入像素列表: %v", err), 1)
	}
	fmt.Printf("像素列表已写入 %s (步长 %d×%d)\n", out, istep, jstep)
	return nil
}

// stepFlag 命令行参数优先，其次是变量注册表，最后为1
func stepFlag(c *cli.Context, reg vars.Registry, flagName, varName string) int {
	if c.IsSet(flagName) {
		return c.Int(flagName)
	}
	if v, ok := reg.Get(varName); ok && v >= 1 {
		return int(v)
	}
	return 1
}

// runBgnoise 估计背景噪声并导出为变量bgnoise
func runBgnoise(c *cli.Context) error {
	buf, _, err := loadArg(c)
	if err != nil {
		return err
	}
	report, err := stats.Compute(buf)
	if err != nil {
		return cli.Exit(fmt.Sprintf("统计失败: %v", err), 1)
	}
	noise, err := stats.BackgroundNoise(report)
	if err != nil {
		return cli.Exit(fmt.Sprintf("噪声估计失败: %v", err), 1)
	}
	if err := stats.WriteNoise(os.Stdout, noise); err != nil {
		return cli.Exit(fmt.Sprintf("输出失败: %v", err), 1)
	}

	reg, closeFn, err := openRegistry(c.String("vars-db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法打开变量数据库: %v", err), 1)
	}
	defer closeFn()
	if err := reg.Set("bgnoise", noise.Sigma()); err != nil {
		return cli.Exit(fmt.Sprintf("变量导出失败: %v", err), 1)
	}
	return nil
}

// runNbpixflux 输出从暗到亮的累计通量
func runNbpixflux(c *cli.Context) error {
	buf, _, err := loadArg(c)
	if err != nil {
		return err
	}
	report, err := stats.Compute(buf)
	if err != nil {
		return cli.Exit(fmt.Sprintf("统计失败: %v", err), 1)
	}
	flux, err := stats.CumulativeFlux(report)
	if err != nil {
		return cli.Exit(fmt.Sprintf("累计通量计算失败: %v", err), 1)
	}
	out := c.String("out")
	if err := writeFile(out, func(f *os.File) error {
		return stats.WriteCumulativeFlux(f, flux)
	}); err != nil {
		return cli.Exit(fmt.Sprintf("无法写入累计通量: %v", err), 1)
	}
	fmt.Printf("%d 个像素的累计通量已写入 %s\n", len(flux), out)
	return nil
}

// runProfile2im 由轮廓文件生成径向对称图像
func runProfile2im(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("错误: 必须指定轮廓文件", 1)
	}
	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法打开轮廓: %v", err), 1)
	}
	profile, err := stats.ReadProfile(f, c.Int("nbpoints"))
	f.Close()
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法读取轮廓: %v", err), 1)
	}

	size := c.Int("size")
	cx, cy := c.Float64("cx"), c.Float64("cy")
	if !c.IsSet("cx") {
		cx = float64(size) / 2
	}
	if !c.IsSet("cy") {
		cy = float64(size) / 2
	}
	img, err := stats.ProfileImage(profile, size, cx, cy, c.Float64("radius"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("图像生成失败: %v", err), 1)
	}
	out := c.String("out")
	if err := persist.SaveHeatmap(out, img, "profile"); err != nil {
		return cli.Exit(fmt.Sprintf("无法保存图像: %v", err), 1)
	}
	fmt.Printf("%d 点轮廓生成的图像已写入 %s\n", len(profile), out)
	return nil
}

// runStructfunc 计算图像的结构函数
func runStructfunc(c *cli.Context) error {
	buf, _, err := loadArg(c)
	if err != nil {
		return err
	}
	sf, err := stats.StructureFunction(buf, c.Int("npoints"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("结构函数计算失败: %v", err), 1)
	}
	out := c.String("out")
	if err := persist.SaveHeatmap(out, sf, "structure function"); err != nil {
		return cli.Exit(fmt.Sprintf("无法保存结构函数: %v", err), 1)
	}
	fmt.Printf("结构函数已写入 %s\n", out)
	return nil
}

// runMonitor 启动帧生产者和终端监控界面
func runMonitor(c *cli.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return cli.Exit("错误: 监控界面需要在终端中运行", 1)
	}

	appConfig, err := buildConfigFromCLI(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("参数错误: %v", err), 1)
	}
	if err := validateConfig(appConfig); err != nil {
		return cli.Exit(fmt.Sprintf("配置验证失败: %v", err), 1)
	}

	// 显示运行配置
	printRunningConfig(appConfig)

	s, err := openStream(appConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建数据流: %v", err), 1)
	}
	defer s.producer.Stop()

	fmt.Println("\n正在启动监控界面...")

	// 显示使用说明
	printUsageInstructions()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	restore := quietLogs(c.String("log-file"))
	sampler := timing.NewSampler(appConfig.TimingConfig)
	ui := tui.NewTUI(appConfig.ImageName, s.image, sampler, appConfig.TUIConfig)
	err = ui.Run(ctx)
	restore()
	if err != nil {
		return cli.Exit(fmt.Sprintf("监控界面运行出错: %v", err), 1)
	}

	fmt.Printf("\n共写入 %d 帧，程序已退出\n", s.producer.Frames())
	return nil
}

// runStreamTiming 不启动界面，按周期测量帧间隔并输出计时报告
func runStreamTiming(c *cli.Context) error {
	appConfig, err := buildConfigFromCLI(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("参数错误: %v", err), 1)
	}
	appConfig.TUIConfig = tui.DefaultConfig()
	if err := validateConfig(appConfig); err != nil {
		return cli.Exit(fmt.Sprintf("配置验证失败: %v", err), 1)
	}
	cycles, samples := c.Int("cycles"), c.Int("samples")
	if cycles <= 0 || samples < 2 {
		return cli.Exit("错误: 周期数必须大于0，样本数不能少于2", 1)
	}

	s, err := openStream(appConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建数据流: %v", err), 1)
	}
	defer s.producer.Stop()

	stream, err := s.image.Stream(c.Int("slot"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法打开信号量槽位: %v", err), 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler := timing.NewSampler(appConfig.TimingConfig)
	var micros []float64
	for cycle := 0; cycle < cycles; cycle++ {
		report, err := sampler.Sample(ctx, stream, samples)
		if err != nil {
			return cli.Exit(fmt.Sprintf("采样失败: %v", err), 1)
		}
		fmt.Printf("\n=== %s  周期 %d/%d ===\n", appConfig.ImageName, cycle+1, cycles)
		if err := timing.WriteReport(os.Stdout, report); err != nil {
			return cli.Exit(fmt.Sprintf("输出失败: %v", err), 1)
		}
		for _, v := range report.Intervals {
			micros = append(micros, 1e6*v)
		}
	}

	lt := sampler.Lifetime()
	fmt.Printf("\n累计 %d 个样本: p50 = %v  p99 = %v  p99.9 = %v  max = %v\n", lt.Count, lt.P50, lt.P99, lt.P999, lt.Max)

	if hist := c.String("hist"); hist != "" {
		if err := persist.SaveHistogram(hist, micros, 50, appConfig.ImageName, "interval (us)"); err != nil {
			return cli.Exit(fmt.Sprintf("无法保存直方图: %v", err), 1)
		}
		fmt.Printf("帧间隔直方图已写入 %s\n", hist)
	}
	return nil
}

// printRunningConfig 打印运行配置信息
func printRunningConfig(config *AppConfig) {
	fmt.Printf("图像: %s  %v  %s\n", config.ImageName, config.Size, config.Type)
	if config.UDPAddr != "" {
		fmt.Printf("UDP监听: %s\n", config.UDPAddr)
	} else {
		fmt.Printf("模拟帧率: %g Hz\n", config.FeedConfig.Rate)
	}
	fmt.Printf("刷新频率: %g Hz\n", config.TUIConfig.Frequency)
	fmt.Printf("计时样本数: %d\n", config.TUIConfig.TimingSamples)
}

// loadArg 加载第一个参数指定的图像文件
func loadArg(c *cli.Context) (*core.Buffer, string, error) {
	path := c.Args().First()
	if path == "" {
		return nil, "", cli.Exit("错误: 必须指定图像文件", 1)
	}
	buf, err := imagestore.LoadFile(path)
	if err != nil {
		return nil, "", cli.Exit(fmt.Sprintf("无法加载图像: %v", err), 1)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return buf, name, nil
}

// loadOptional 路径为空时返回nil
func loadOptional(path string) (*core.Buffer, error) {
	if path == "" {
		return nil, nil
	}
	buf, err := imagestore.LoadFile(path)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("无法加载 %s: %v", path, err), 1)
	}
	return buf, nil
}

// exportVars 将统计结果写入变量注册表
func exportVars(c *cli.Context, buf *core.Buffer, report *stats.Report) error {
	reg, closeFn, err := openRegistry(c.String("vars-db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法打开变量数据库: %v", err), 1)
	}
	defer closeFn()

	if err := stats.Export(reg, buf, report); err != nil {
		return cli.Exit(fmt.Sprintf("变量导出失败: %v", err), 1)
	}
	log.WithField("vars", len(reg.Names())).Debug("统计变量已导出")
	return nil
}

// openRegistry dbPath为空时使用内存注册表
func openRegistry(dbPath string) (vars.Registry, func(), error) {
	if dbPath == "" {
		return vars.NewMemory(), func() {}, nil
	}
	db, err := vars.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("关闭变量数据库失败")
		}
	}, nil
}

// readMatrixFile 读取cubeslmatch输出的矩阵列表
func readMatrixFile(path string) (*core.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	defer f.Close()
	return match.ReadMatrixListing(f)
}

// writeFile 创建文件并写入，失败时删除不完整的文件
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	werr := write(f)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return werr
	}
	return nil
}
