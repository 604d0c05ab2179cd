package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"

	"sol-blockview/internal/config"
	"sol-blockview/internal/logic/grpc"
	"sol-blockview/internal/svc"
	"sol-blockview/internal/utils"
	"sol-blockview/pkg/logger"
)

var configFile = flag.String("f", "etc/grpc.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.GrpcConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewGrpcServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	sg := zerosvc.NewServiceGroup()

	// 漏块检测（可选）
	var slotChecker *grpc.SlotChecker
	if c.SlotCheckerConf.RpcEndpoint != "" {
		delay := time.Duration(c.SlotCheckerConf.DelayBeforeCheckSec) * time.Second
		slotChecker = grpc.NewSlotChecker(c.SlotCheckerConf.RpcEndpoint, delay, serviceContext.ProgressManager)
		sg.Add(slotChecker)
	}

	blockChan := make(chan *pb.SubscribeUpdateBlock, 200)

	sg.Add(grpc.NewBlockProcessor(serviceContext, blockChan, slotChecker))

	grpcService, err := grpc.NewGrpcStreamManager(serviceContext, blockChan)
	if err != nil {
		panic(err)
	}
	sg.Add(grpcService)

	logx.Infof("Starting grpc stream service, host: %s", utils.GetLocalIP())

	// 启动服务
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logx.Info("Shutting down services...")
	sg.Stop()
}
